package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/mediastore"
)

// handleMedia serves files of the local media store.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		http.NotFound(w, r)
		return
	}
	key := mux.Vars(r)["key"]
	path, err := s.local.Path(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("media open failed", logging.String("key", key), logging.Error(err))
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mediastore.ContentType(key))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
