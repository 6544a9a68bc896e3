package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/logtap/internal/config"
	"github.com/rzbill/logtap/internal/runtime"
	httpserver "github.com/rzbill/logtap/internal/server/http"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

type Options struct {
	HTTPAddr string
	Config   cfgpkg.Config
	Logger   logpkg.Logger
}

// Run starts the relay server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers
	// without signal handling still shut down cleanly.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.Logger
	if logger == nil {
		logger = logpkg.FromEnv(os.Getenv("LOGTAP_LOG_LEVEL"), os.Getenv("LOGTAP_LOG_FORMAT"))
	}

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := opts.HTTPAddr
	if addr == "" {
		addr = opts.Config.HTTPAddr
	}
	logger.Info("starting logtap server",
		logpkg.Str("http", addr),
		logpkg.Int("bucket_capacity", opts.Config.BucketCapacity),
		logpkg.Str("archive_dir", opts.Config.ArchiveDir),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Hub().Run(sctx)
	}()

	hsrv := httpserver.New(rt)
	wg.Add(1)
	var serveErr error
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, addr); err != nil && sctx.Err() == nil {
			serveErr = err
			stop()
		}
	}()

	<-sctx.Done()
	hsrv.Close()
	wg.Wait()
	return serveErr
}
