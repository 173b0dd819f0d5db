package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

const userAgent = "rafo/1.0"

// Priority levels understood by ntfy.
const (
	PriorityMin     = "1"
	PriorityLow     = "2"
	PriorityDefault = "3"
	PriorityHigh    = "4"
	PriorityMax     = "5"
)

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyOptimizationFinished(ctx context.Context, u upload.Upload, status upload.Status, log string) error
	NotifyExportPublished(ctx context.Context, u upload.Upload, show upload.Show, platformID int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	endpoint := cfg.NtfyEndpoint()
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     endpoint,
		client:       &http.Client{Timeout: timeout},
		optimization: cfg.Notifications.Optimization,
		export:       cfg.Notifications.Export,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	optimization bool
	export       bool
}

func (n *ntfyService) NotifyOptimizationFinished(ctx context.Context, u upload.Upload, status upload.Status, log string) error {
	if !n.optimization {
		return nil
	}
	var message strings.Builder
	fmt.Fprintf(&message, "%s: %s", status.Label(), strings.TrimSpace(u.Title))
	if log = strings.TrimSpace(log); log != "" {
		message.WriteString("\n\n")
		message.WriteString(log)
	}
	data := payload{
		title:   fmt.Sprintf("%s: Optimierung abgeschlossen", uploadLabel(u.ID)),
		message: message.String(),
		tags:    []string{"loud_sound"},
	}
	switch status {
	case upload.StatusError:
		data.title = fmt.Sprintf("%s: Optimierung fehlgeschlagen", uploadLabel(u.ID))
		data.tags = []string{"warning"}
		data.priority = PriorityHigh
	case upload.StatusDoneWithWarnings:
		data.tags = []string{"loud_sound", "warning"}
	default:
		data.priority = PriorityLow
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportPublished(ctx context.Context, u upload.Upload, show upload.Show, platformID int) error {
	if !n.export {
		return nil
	}
	name := strings.TrimSpace(show.Name)
	author := strings.TrimSpace(u.Author)
	if author == "" {
		author = "unbekannt"
	}
	data := payload{
		title:    fmt.Sprintf("%s: Neue Nachrichtensendung %s", uploadLabel(u.ID), name),
		message:  fmt.Sprintf("Eine neue Nachrichtensendung für %s von %s wurde eingereicht (Omnia ID %d).", name, author, platformID),
		tags:     []string{"newspaper"},
		priority: PriorityLow,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "rafo - Test",
		message:  "Notification system test",
		tags:     []string{"test_tube"},
		priority: PriorityLow,
	}
	return n.send(ctx, data)
}

func uploadLabel(id int64) string {
	return fmt.Sprintf("u-%05d", id)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != PriorityDefault {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "notifications", "ntfy", "send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrRemoteApplication, "notifications", "ntfy",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyOptimizationFinished(context.Context, upload.Upload, upload.Status, string) error {
	return nil
}
func (noopService) NotifyExportPublished(context.Context, upload.Upload, upload.Show, int) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
