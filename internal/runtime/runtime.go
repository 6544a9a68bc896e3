package runtime

import (
	"context"
	"time"

	"github.com/rzbill/logtap/internal/archive"
	cfgpkg "github.com/rzbill/logtap/internal/config"
	"github.com/rzbill/logtap/internal/hub"
	"github.com/rzbill/logtap/internal/ingest"
	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime owns the relay's shared state for one process.
type Runtime struct {
	config  cfgpkg.Config
	logger  logpkg.Logger
	store   *store.Store
	hub     *hub.Hub
	gate    *ingest.Gate
	archive *archive.Sink

	startedAt time.Time
}

// Open builds the runtime from configuration. The archive sink is opened
// only when a directory is configured.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	cfg := opts.Config

	st := store.New(store.Options{Capacity: cfg.BucketCapacity})
	h := hub.New(hub.Options{
		Buffer:      cfg.SubscriberBuffer,
		SendTimeout: time.Duration(cfg.SendTimeoutMs) * time.Millisecond,
		Keepalive:   time.Duration(cfg.KeepaliveMs) * time.Millisecond,
	}, logger)

	var sink *archive.Sink
	if cfg.ArchiveDir != "" {
		var err error
		sink, err = archive.Open(cfg.ArchiveDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("archive sink enabled", logpkg.Str("dir", cfg.ArchiveDir))
	}

	rt := &Runtime{
		config:    cfg,
		logger:    logger,
		store:     st,
		hub:       h,
		archive:   sink,
		startedAt: time.Now(),
	}
	var archiver ingest.Archiver
	if sink != nil {
		archiver = sink
	}
	rt.gate = ingest.New(cfg, st, h, archiver, logger)
	return rt, nil
}

// Close releases runtime resources.
func (r *Runtime) Close() error {
	if r.archive != nil {
		return r.archive.Close()
	}
	return nil
}

// CheckHealth reports whether the runtime can serve requests.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	return ctx.Err()
}

// Store returns the shared log store.
func (r *Runtime) Store() *store.Store { return r.store }

// Hub returns the broadcast hub.
func (r *Runtime) Hub() *hub.Hub { return r.hub }

// Gate returns the ingestion gate.
func (r *Runtime) Gate() *ingest.Gate { return r.gate }

// Archive returns the archive sink, or nil when archiving is disabled.
func (r *Runtime) Archive() *archive.Sink { return r.archive }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// Uptime reports how long the runtime has been open.
func (r *Runtime) Uptime() time.Duration { return time.Since(r.startedAt) }
