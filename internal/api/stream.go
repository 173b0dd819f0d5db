package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/logging"
)

// CloseMarker is the payload of the final message of an export feed.
const CloseMarker = "CLOSE CONNECTION"

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleExportEvents streams an export run as server-sent events.
func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "export unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	id, _ := uploadID(r)
	logger := s.logger.With(logging.Int64(logging.FieldUploadID, id))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range s.exporter.Start(r.Context(), id) {
		data, err := json.Marshal(event)
		if err != nil {
			logger.Warn("failed to encode export event", logging.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			logger.Debug("export stream client gone", logging.Error(err))
			continue
		}
		flusher.Flush()
	}
	_, _ = fmt.Fprintf(w, "event: close\ndata: %s\n\n", CloseMarker)
	flusher.Flush()
}

// handleExportSocket streams an export run over a websocket and ends with a
// normal close frame.
func (s *Server) handleExportSocket(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "export unavailable")
		return
	}
	id, _ := uploadID(r)
	logger := s.logger.With(logging.Int64(logging.FieldUploadID, id))

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for event := range s.exporter.Start(ctx, id) {
		if err := conn.WriteJSON(event); err != nil {
			logger.Debug("websocket client gone", logging.Error(err))
			cancel()
		}
	}
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, CloseMarker)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		logger.Debug("websocket close failed", logging.Error(err))
	}
}

// DecodeEvent parses one feed payload.
func DecodeEvent(data []byte) (export.Event, error) {
	var e export.Event
	err := json.Unmarshal(data, &e)
	return e, err
}
