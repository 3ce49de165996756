package preflight

import (
	"context"

	"pitchdna/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config. The reference
// table is only checked when one is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.Reference != "" {
		results = append(results, CheckReference(cfg.Paths.Reference))
	}
	results = append(results,
		CheckEndpoint(ctx, "StatsAPI", cfg.StatsAPI.BaseURL),
		CheckEndpoint(ctx, "Statcast", cfg.Statcast.BaseURL),
	)
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
