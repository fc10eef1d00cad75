// filenav is an interactive file navigator over an internal storage root
// and any number of removable or configured external roots.
//
// Features:
// - Virtual root listing all storage roots
// - Removable media detection (fsnotify + polling)
// - External roots from media directories, PostgreSQL or an S3 bucket
// - Prometheus metrics & structured logging (zap)
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fruitsalade/filenav/internal/config"
	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/hostfs/s3fs"
	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/media"
	"github.com/fruitsalade/filenav/internal/metrics"
	"github.com/fruitsalade/filenav/internal/navigator"
	"github.com/fruitsalade/filenav/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	host := hostfs.NewMountFS(hostfs.NewOS())
	src, locs, closeSource := buildSource(ctx, cfg, host)
	defer closeSource()

	if cfg.S3MountPath != "" {
		bucket, err := s3fs.New(ctx, s3fs.Config{
			MountPath: cfg.S3MountPath,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
		})
		if err != nil {
			logging.Fatal("S3 init failed", zap.Error(err))
		}
		if err := host.Mount(cfg.S3MountPath, bucket); err != nil {
			logging.Fatal("S3 mount failed", zap.Error(err))
		}
		src = storage.MultiSource{src, &storage.StaticSource{External: []string{cfg.S3MountPath}}}
		logging.Info("bucket mounted",
			zap.String("bucket", cfg.S3Bucket),
			zap.String("mount", cfg.S3MountPath))
	}

	reg := storage.NewRegistry(src)
	cur := newCursor(reg, host, cfg.StartStorage)

	out := bufio.NewWriter(os.Stdout)
	cur.SetMediaListener(func(count int) {
		fmt.Fprintf(out, "media changed: %d storage roots\n", count)
	})

	notifierCfg := media.Config{PollInterval: cfg.PollInterval}
	if cfg.Source == config.SourceMedia {
		notifierCfg.MediaDirs = cfg.MediaDirs
	}
	notifier := media.NewNotifier(reg, notifierCfg)
	if err := notifier.Start(ctx); err != nil {
		logging.Error("media notifier failed to start", zap.Error(err))
	}
	defer notifier.Stop()
	events := notifier.Subscribe()
	defer notifier.Unsubscribe(events)

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metrics.Handler(),
		}
		go func() {
			logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("metrics server error", zap.Error(err))
			}
		}()
		defer metricsServer.Close()
	}

	logging.Info("filenav ready",
		zap.String("source", cfg.Source),
		zap.Int("roots", reg.Count()))

	sh := &shell{cur: cur, out: out, locs: locs}
	lines := readLines(os.Stdin)
	prompt(out, cur)
	for {
		select {
		case <-ctx.Done():
			logging.Info("shutting down...")
			return
		case ev := <-events:
			logging.Info("media event",
				zap.String("type", ev.Type),
				zap.String("path", ev.Path),
				zap.Int("count", ev.Count))
			cur.HandleMediaEvent()
			prompt(out, cur)
		case line, ok := <-lines:
			if !ok || sh.exec(ctx, line) {
				out.Flush()
				return
			}
			prompt(out, cur)
		}
	}
}

// buildSource selects the external root source. The returned close func
// releases any database connection.
func buildSource(ctx context.Context, cfg *config.Config, host hostfs.FS) (storage.Source, LocationAdmin, func()) {
	switch cfg.Source {
	case config.SourceMedia:
		return &storage.MediaSource{
			Internal:     cfg.InternalRoot,
			MediaDirs:    cfg.MediaDirs,
			AppDir:       cfg.AppDir,
			RequireMount: cfg.RequireMount,
			FS:           host,
		}, nil, func() {}

	case config.SourcePostgres:
		logging.Info("connecting to PostgreSQL...")
		store, err := storage.OpenLocationStore(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("database connection failed", zap.Error(err))
		}
		if err := store.Migrate(ctx); err != nil {
			logging.Fatal("migration failed", zap.Error(err))
		}
		return &storage.LocationSource{
			Internal: cfg.InternalRoot,
			Store:    store,
			FS:       host,
		}, store, func() { store.Close() }

	default:
		return &storage.StaticSource{
			Internal: cfg.InternalRoot,
			External: cfg.ExternalRoots,
		}, nil, func() {}
	}
}

func newCursor(reg *storage.Registry, host hostfs.FS, start int) *navigator.Cursor {
	if start == storage.RootIndex {
		return navigator.New(reg, host)
	}
	cur, err := navigator.NewAt(reg, host, start)
	if err != nil {
		logging.Warn("start storage unavailable, starting at root",
			zap.Int("storage", start), zap.Error(err))
		return navigator.New(reg, host)
	}
	return cur
}

func readLines(f *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func prompt(out *bufio.Writer, cur *navigator.Cursor) {
	if dir, ok := cur.Dir(); ok {
		fmt.Fprintf(out, "[%d] %s> ", cur.Storage(), dir)
	} else {
		fmt.Fprint(out, "/> ")
	}
	out.Flush()
}
