package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/events"
	"pitchdna/internal/identity"
	"pitchdna/internal/logging"
	"pitchdna/internal/rescache"
	"pitchdna/internal/services"
	"pitchdna/internal/similarity"
	"pitchdna/internal/stage"
)

// stageDeps is everything one stage run is built from.
type stageDeps struct {
	cfg           *config.Config
	logger        *slog.Logger
	referencePath string
}

// builtStage is a ready handler plus the cache backing it, if any.
type builtStage struct {
	handler stage.Handler
	cache   *rescache.Cache
}

func buildStage(name string, deps stageDeps) (builtStage, error) {
	cfg := deps.cfg
	scorer, err := similarity.New(cfg.Resolver.Scorer)
	if err != nil {
		return builtStage{}, services.Wrap(services.ErrConfiguration, name, "build", "resolver.scorer", err)
	}

	switch name {
	case stage.NameIdentify:
		ids, err := loadReference(deps, scorer, true)
		if err != nil {
			return builtStage{}, err
		}
		return builtStage{handler: stage.NewIdentify(ids, cfg.Columns)}, nil

	case stage.NameLocate:
		ids, err := loadReference(deps, scorer, false)
		if err != nil {
			return builtStage{}, err
		}
		client, err := catalog.NewStatcast(cfg.Statcast.BaseURL,
			catalog.WithLogger(deps.logger),
			catalog.WithTransportOptions(transportOptions(cfg.Statcast, cfg.Breaker)),
		)
		if err != nil {
			return builtStage{}, err
		}
		cache := rescache.New(client, deps.logger)
		resolver := events.NewResolver(scorer, cfg.Resolver.NameThreshold, deps.logger)
		return builtStage{
			handler: stage.NewLocate(cache, resolver, ids, cfg.Columns, client.Transport()),
			cache:   cache,
		}, nil

	case stage.NameLink, stage.NameVerify:
		client, err := catalog.NewStatsAPI(cfg.StatsAPI.BaseURL,
			catalog.WithLogger(deps.logger),
			catalog.WithTransportOptions(transportOptions(cfg.StatsAPI, cfg.Breaker)),
		)
		if err != nil {
			return builtStage{}, err
		}
		cache := rescache.New(client, deps.logger)
		if name == stage.NameVerify {
			return builtStage{
				handler: stage.NewVerify(cache, scorer, cfg.Resolver.NameThreshold, cfg.Columns, client.Transport()),
				cache:   cache,
			}, nil
		}
		resolver := events.NewResolver(scorer, cfg.Resolver.NameThreshold, deps.logger)
		return builtStage{
			handler: stage.NewLink(cache, resolver, cfg.Columns, cfg.Savant.VideoURL, client.Transport()),
			cache:   cache,
		}, nil

	case stage.NameCheck:
		checker := catalog.NewClipChecker(
			catalog.WithLogger(deps.logger),
			catalog.WithTransportOptions(transportOptions(cfg.Savant.Catalog(), cfg.Breaker)),
		)
		return builtStage{handler: stage.NewCheck(checker, cfg.Columns, checker.Transport())}, nil
	}
	return builtStage{}, fmt.Errorf("unknown stage %q", name)
}

// loadReference reads the player reference table. Without a configured path
// it fails when required and returns nil otherwise.
func loadReference(deps stageDeps, scorer similarity.Scorer, required bool) (*identity.Resolver, error) {
	path := strings.TrimSpace(deps.referencePath)
	if path == "" {
		path = deps.cfg.Paths.Reference
	}
	if path == "" {
		if required {
			return nil, services.Wrap(services.ErrConfiguration, "identify", "load reference",
				"player reference table required; pass --reference or set paths.reference", nil)
		}
		return nil, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()

	table, stats, err := identity.LoadCSV(f, identity.DefaultColumns())
	if err != nil {
		return nil, fmt.Errorf("load reference table %s: %w", expanded, err)
	}
	logging.NewComponentLogger(deps.logger, "identity").Info("reference table loaded",
		logging.String("path", expanded),
		logging.Int("rows", stats.Rows),
		logging.Int("loaded", stats.Loaded),
		logging.Int("skipped", stats.Skipped),
		logging.Int("duplicates", stats.Duplicates),
	)
	return identity.NewResolver(table, scorer, deps.cfg.Resolver.IdentityThreshold), nil
}

func transportOptions(cat config.Catalog, breaker config.Breaker) catalog.TransportOptions {
	return catalog.TransportOptions{
		Timeout:           cat.Timeout(),
		RequestsPerSecond: cat.RequestsPerSecond,
		Burst:             cat.Burst,
		MaxRetries:        cat.MaxRetries,
		BreakerFailures:   uint32(breaker.MaxFailures),
		BreakerOpen:       breaker.OpenDuration(),
	}
}
