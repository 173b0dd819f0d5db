package preflight

import (
	"context"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the filesystem and remote checks that apply to cfg.
// Remote endpoints are only probed when configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Storage.Backend == config.StorageLocal {
		results = append(results, CheckDirectoryAccess("Media directory", cfg.Storage.LocalDir))
	}

	if base := strings.TrimSpace(cfg.Export.BaseURL); base != "" {
		results = append(results, CheckEndpoint(ctx, "Omnia API", base))
	}
	if cfg.NtfyEndpoint() != "" && strings.TrimSpace(cfg.Notifications.NtfyURL) != "" {
		results = append(results, CheckEndpoint(ctx, "ntfy", strings.TrimRight(cfg.Notifications.NtfyURL, "/")+"/v1/health"))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
