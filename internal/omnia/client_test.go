package omnia_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/omnia"
	"github.com/alex-berlin-tv/rafo/internal/services"
)

func newClient(baseURL string) *omnia.Client {
	return omnia.NewClient(config.Export{
		BaseURL:        baseURL,
		DomainID:       1000,
		APISecret:      "secret",
		SessionID:      "session-1",
		StreamType:     "audio",
		RequestTimeout: 5,
	}, logging.NewNop())
}

func TestTokenSignsOperationDomainAndSecret(t *testing.T) {
	sum := md5.Sum([]byte("fromurl1000secret"))
	got := omnia.Token("fromurl", 1000, "secret")
	if got != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected token %q", got)
	}
	if got == omnia.Token("update", 1000, "secret") {
		t.Fatal("token must depend on the operation")
	}
}

func TestUploadFromURLSendsSignedForm(t *testing.T) {
	var (
		path   string
		method string
		cid    string
		token  string
		form   url.Values
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
		cid = r.Header.Get("X-Request-CID")
		token = r.Header.Get("X-Request-Token")
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		_, _ = io.WriteString(w, `{"metadata":{"status":201,"verb":"POST","processingtime":0.1},
			"result":{"message":"ok","itemupdate":{"streamtype":"audio","generatedID":"4711","generatedGID":99}}}`)
	}))
	defer server.Close()

	id, err := newClient(server.URL).UploadFromURL(context.Background(), "http://media.test/media/a.mp3", "240301-0930_1", "240301-0930_1")
	if err != nil {
		t.Fatalf("UploadFromURL: %v", err)
	}
	if id != 4711 {
		t.Fatalf("expected item id 4711, got %d", id)
	}
	if method != http.MethodPost || path != "/1000/manage/audio/fromurl" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
	if cid != "session-1" || token != omnia.Token("fromurl", 1000, "secret") {
		t.Fatalf("unexpected signature headers %q %q", cid, token)
	}
	if form.Get("url") != "http://media.test/media/a.mp3" || form.Get("refnr") != "240301-0930_1" || form.Get("filename") != "240301-0930_1" {
		t.Fatalf("unexpected form %v", form)
	}
}

func TestErrorHintIsRemoteApplication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"metadata":{"status":400,"errorhint":"invalid refnr"},"result":null}`)
	}))
	defer server.Close()

	err := newClient(server.URL).UpdateMetadata(context.Background(), 1, omnia.ItemMetadata{Title: "x"})
	if !errors.Is(err, services.ErrRemoteApplication) {
		t.Fatalf("expected remote application error, got %v", err)
	}
}

func TestNetworkFailureIsRemoteTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := newClient(baseURL).ItemByID(context.Background(), 1)
	if !errors.Is(err, services.ErrRemoteTransport) {
		t.Fatalf("expected remote transport error, got %v", err)
	}
}

func TestGatewayErrorIsRemoteTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer server.Close()

	_, err := newClient(server.URL).ItemsByRefnr(context.Background(), "x")
	if !errors.Is(err, services.ErrRemoteTransport) {
		t.Fatalf("expected remote transport error, got %v", err)
	}
}

func TestItemByIDDecodesRestrictions(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1000/audio/byid/4711" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query = r.URL.Query()
		_, _ = io.WriteString(w, `{"metadata":{"status":200},"result":{
			"general":{"ID":4711,"title":"Morning","description":"desc","refnr":"240301-0930_1","releasedate":1709285400},
			"restrictionsdetails":{"validFrom":"1709289000","validUntil":1709375400}}}`)
	}))
	defer server.Close()

	item, err := newClient(server.URL).ItemByID(context.Background(), 4711)
	if err != nil {
		t.Fatalf("ItemByID: %v", err)
	}
	if query.Get("addRestrictionDetails") != "1" {
		t.Fatalf("expected restriction details to be requested, got %v", query)
	}
	if item.ID != 4711 || item.Title != "Morning" || item.Refnr != "240301-0930_1" {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.ReleaseDate.Equal(time.Unix(1709285400, 0)) || !item.ValidFrom.Equal(time.Unix(1709289000, 0)) || !item.ValidUntil.Equal(time.Unix(1709375400, 0)) {
		t.Fatalf("unexpected dates %+v", item)
	}
}

func TestItemsByRefnrAndConnectShow(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/1000/audio/byrefnr/240301-0930_1":
			_, _ = io.WriteString(w, `{"metadata":{"status":200},"result":[{"general":{"ID":1,"title":"a"}},{"general":{"ID":2,"title":"b"}}]}`)
		default:
			_, _ = io.WriteString(w, `{"metadata":{"status":200},"result":{"message":"ok"}}`)
		}
	}))
	defer server.Close()

	client := newClient(server.URL)
	items, err := client.ItemsByRefnr(context.Background(), "240301-0930_1")
	if err != nil || len(items) != 2 || items[1].Title != "b" {
		t.Fatalf("ItemsByRefnr = %+v, %v", items, err)
	}
	if err := client.ConnectShow(context.Background(), 4711, 55); err != nil {
		t.Fatalf("ConnectShow: %v", err)
	}
	if paths[1] != "PUT /1000/manage/audio/4711/connectshow/55" {
		t.Fatalf("unexpected connect path %s", paths[1])
	}
}
