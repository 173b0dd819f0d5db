package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/mediastore"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

type stubOptimizer struct {
	started []int64
	err     error
}

func (s *stubOptimizer) StartOptimize(_ context.Context, id int64) (<-chan error, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.started = append(s.started, id)
	done := make(chan error, 1)
	done <- nil
	close(done)
	return done, nil
}

func (s *stubOptimizer) Waveform(context.Context, int64) (upload.Status, error) {
	return upload.StatusDone, nil
}

type stubExporter struct {
	events []export.Event
}

func (s stubExporter) Start(_ context.Context, _ int64) <-chan export.Event {
	ch := make(chan export.Event, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	close(ch)
	return ch
}

type fixture struct {
	server *httptest.Server
	store  *store.Store
	opt    *stubOptimizer
	upload *upload.Upload
	local  *mediastore.Local
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	u := testsupport.MustCreateUpload(t, st, upload.Upload{})
	local, err := mediastore.NewLocal(cfg.Storage.LocalDir, cfg.Paths.PublicURL)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	var finalize export.Pairs
	finalize.Add("Platform ID", "9001")
	opt := &stubOptimizer{}
	srv, err := NewServer(Options{
		Config:    cfg,
		Uploads:   st,
		Optimizer: opt,
		Exporter: stubExporter{events: []export.Event{
			{Target: export.TargetLoad, State: export.StateRunning},
			{Target: export.TargetLoad, State: export.StateDone},
			{Target: export.TargetFinalize, State: export.StateDone, CopyableValues: finalize},
		}},
		Links:   local,
		Local:   local,
		Pingers: map[string]preflight.Pinger{"Database": st},
		Checks:  func(context.Context) []preflight.Result { return nil },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{server: ts, store: st, opt: opt, upload: u, local: local}
}

func (f *fixture) url(path string, key string) string {
	u := f.server.URL + path
	if key != "" {
		u += "?key=" + key
	}
	return u
}

func (f *fixture) uploadPath(suffix string) string {
	return "/api/uploads/" + strconv.FormatInt(f.upload.ID, 10) + suffix
}

func TestUploadViewRequiresKey(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.url(f.uploadPath(""), "wrong"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp, err = http.Get(f.url(f.uploadPath(""), "test-key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	var view Upload
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID != f.upload.ID || view.Title != "Test Upload" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.ReferenceNumber != "240301-0930_"+strconv.FormatInt(f.upload.ID, 10) {
		t.Fatalf("unexpected reference %q", view.ReferenceNumber)
	}
	if view.Pipelines.Optimization != "pending" {
		t.Fatalf("unexpected pipelines %+v", view.Pipelines)
	}
}

func TestUploadNotFound(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url("/api/uploads/999", "test-key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLinkTokenIsScopedToUpload(t *testing.T) {
	f := newFixture(t)
	token, err := IssueLinkToken("test-secret", f.upload.ID, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	resp, err := http.Get(f.url(f.uploadPath(""), token))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected token to open its upload, got %d", resp.StatusCode)
	}

	other, err := IssueLinkToken("test-secret", f.upload.ID+1, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	resp, err = http.Get(f.url(f.uploadPath(""), other))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign token, got %d", resp.StatusCode)
	}
}

func TestAuthorizerRejectsExpiredAndForeignTokens(t *testing.T) {
	auth := NewAuthorizer("key", "secret")
	expired, err := IssueLinkToken("secret", 7, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	if err := auth.Authorize(expired, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
	forged, err := IssueLinkToken("other-secret", 7, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	if err := auth.Authorize(forged, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected forged token rejection, got %v", err)
	}
	if err := auth.Authorize("key", 7); err != nil {
		t.Fatalf("access key must grant access: %v", err)
	}
	if NewAuthorizer("", "").IsAccessKey("") {
		t.Fatal("empty access key must not match")
	}
}

func TestOptimizeAcceptsAndMapsGuard(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.url(f.uploadPath("/optimize"), "test-key"), "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if len(f.opt.started) != 1 || f.opt.started[0] != f.upload.ID {
		t.Fatalf("unexpected starts %v", f.opt.started)
	}

	f.opt.err = services.Wrap(services.ErrGuardViolation, "optimization", "claim", "running", nil)
	resp, err = http.Post(f.url(f.uploadPath("/optimize"), "test-key"), "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestExportEventStream(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url(f.uploadPath("/export"), "test-key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var data []string
	var closed bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: close":
			closed = true
		case strings.HasPrefix(line, "data: ") && !closed:
			data = append(data, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, "data: ") && closed:
			if line != "data: "+CloseMarker {
				t.Fatalf("unexpected close payload %q", line)
			}
		}
	}
	if !closed {
		t.Fatal("expected close event")
	}
	if len(data) != 3 {
		t.Fatalf("expected 3 events, got %d", len(data))
	}
	last, err := DecodeEvent([]byte(data[2]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id, _ := last.CopyableValues.Get("Platform ID"); last.Target != export.TargetFinalize || id != "9001" {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestExportStreamRejectsBadKey(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url(f.uploadPath("/export"), "nope"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestExportWebsocket(t *testing.T) {
	f := newFixture(t)
	wsURL := "ws" + strings.TrimPrefix(f.url(f.uploadPath("/export/ws"), "test-key"), "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var events []export.Event
	for {
		var e export.Event
		if err := conn.ReadJSON(&e); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			break
		}
		events = append(events, e)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestExportResetRequiresAccessKey(t *testing.T) {
	f := newFixture(t)
	token, err := IssueLinkToken("test-secret", f.upload.ID, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	resp, err := http.Post(f.url(f.uploadPath("/export/reset"), token), "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for link token, got %d", resp.StatusCode)
	}

	resp, err = http.Post(f.url(f.uploadPath("/export/reset"), "test-key"), "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMediaRouteServesLocalFiles(t *testing.T) {
	f := newFixture(t)
	key := upload.StorageKey(f.upload.ID, "out.mp3")
	path, err := f.local.Path(key)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	testsupport.WriteFile(t, path, []byte("ID3audio"))

	resp, err := http.Get(f.server.URL + mediastore.MediaRoute + key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", ct)
	}

	resp2, err := http.Get(f.server.URL + mediastore.MediaRoute + "uploads/1/missing.mp3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url("/api/status", "test-key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(status.Dependencies) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe, got %+v", status.Dependencies)
	}
	if len(status.Checks) != 1 || status.Checks[0].Name != "Database" || !status.Checks[0].Passed {
		t.Fatalf("unexpected checks %+v", status.Checks)
	}
	var pending int
	for _, c := range status.Pipelines {
		if c.Pipeline == "export" && c.Status == "pending" {
			pending = c.Count
		}
	}
	if pending != 1 {
		t.Fatalf("expected one pending export, got %+v", status.Pipelines)
	}
}
