package omnia

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/services"
)

const (
	headerCID   = "X-Request-CID"
	headerToken = "X-Request-Token"
	userAgent   = "rafo/1.0"
	maxBody     = 4 << 20
)

// Client talks to the nexx.cloud Omnia media and management APIs.
type Client struct {
	baseURL  string
	domainID int
	secret   string
	session  string
	stream   string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a client from the export configuration.
func NewClient(cfg config.Export, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	stream := strings.TrimSpace(cfg.StreamType)
	if stream == "" {
		stream = "audio"
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		domainID: cfg.DomainID,
		secret:   cfg.APISecret,
		session:  cfg.SessionID,
		stream:   stream,
		http:     &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "omnia"),
	}
}

// Token computes the request signature for an operation.
func Token(operation string, domainID int, secret string) string {
	sum := md5.Sum([]byte(operation + strconv.Itoa(domainID) + secret))
	return hex.EncodeToString(sum[:])
}

type envelope struct {
	Metadata ResponseMetadata `json:"metadata"`
	Result   json.RawMessage `json:"result"`
	Paging   *Paging         `json:"paging,omitempty"`
}

// ResponseMetadata is the status block of every API response.
type ResponseMetadata struct {
	Status         int     `json:"status"`
	APIVersion     string  `json:"apiversion"`
	Verb           string  `json:"verb"`
	ProcessingTime float64 `json:"processingtime"`
	Notice         string  `json:"notice"`
	ErrorHint      string  `json:"errorhint"`
}

// Paging describes a list result.
type Paging struct {
	Start       int `json:"start"`
	Limit       int `json:"limit"`
	ResultCount int `json:"resultcount"`
}

// request describes one API call. Path segments are joined below the domain.
type request struct {
	method    string
	operation string
	segments  []string
	params    url.Values
}

func (c *Client) mediaPath(operation string, args ...string) []string {
	return append([]string{c.stream, operation}, args...)
}

func (c *Client) managePath(id int, operation string, args ...string) []string {
	return append([]string{"manage", c.stream, strconv.Itoa(id), operation}, args...)
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	logger := logging.WithContext(ctx, c.logger)
	endpoint := c.baseURL + "/" + strconv.Itoa(c.domainID) + "/" + strings.Join(escapeAll(req.segments), "/")

	var body io.Reader
	if req.method == http.MethodGet {
		if len(req.params) > 0 {
			endpoint += "?" + req.params.Encode()
		}
	} else {
		body = strings.NewReader(req.params.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "omnia", req.operation, "build request", err)
	}
	httpReq.Header.Set(headerCID, c.session)
	httpReq.Header.Set(headerToken, Token(req.operation, c.domainID, c.secret))
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "omnia", req.operation, "send request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "omnia", req.operation, "read response", err)
	}
	logger.Debug("omnia call",
		logging.String("method", req.method),
		logging.String("operation", req.operation),
		logging.Int("http_status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 500 {
			return services.Wrap(services.ErrRemoteTransport, "omnia", req.operation,
				fmt.Sprintf("http %d", resp.StatusCode), nil)
		}
		return services.Wrap(services.ErrRemoteApplication, "omnia", req.operation,
			fmt.Sprintf("http %d: undecodable response", resp.StatusCode), err)
	}
	if err := env.Metadata.check(resp.StatusCode); err != nil {
		return services.Wrap(services.ErrRemoteApplication, "omnia", req.operation, err.Error(), nil)
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return services.Wrap(services.ErrRemoteApplication, "omnia", req.operation, "decode result", err)
	}
	return nil
}

func (m ResponseMetadata) check(httpStatus int) error {
	status := m.Status
	if status == 0 {
		status = httpStatus
	}
	hint := strings.TrimSpace(m.ErrorHint)
	if status < 200 || status >= 300 {
		if hint == "" {
			hint = http.StatusText(status)
		}
		return fmt.Errorf("status %d: %s", status, hint)
	}
	if hint != "" {
		return fmt.Errorf("status %d: %s", status, hint)
	}
	return nil
}

func escapeAll(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = url.PathEscape(s)
	}
	return out
}
