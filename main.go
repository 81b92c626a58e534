package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"p9e.in/gaugewatch/config"
	"p9e.in/gaugewatch/handlers"
	"p9e.in/gaugewatch/pkg/dashboard"
	"p9e.in/gaugewatch/pkg/metrics"
	"p9e.in/gaugewatch/pkg/mqtt"
	"p9e.in/gaugewatch/pkg/readings"
	"p9e.in/gaugewatch/pkg/sites"
	"p9e.in/gaugewatch/pkg/storage"
	"p9e.in/gaugewatch/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version info and exit")
	sweepFlag := flag.Bool("sweep-orphans", false, "Delete photos no reading references and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := config.SetupLogging(cfg, os.Stderr); err != nil {
		log.WithError(err).Fatal("invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *sweepFlag); err != nil {
		log.WithError(err).Fatal("gaugewatch stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, sweepOnly bool) error {
	registry, err := sites.LoadFile(cfg.SitesFile, cfg.DefaultRadiusMeters)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	log.WithField("sites", registry.Len()).Info("site registry loaded")

	var (
		readingStore readings.ReadingStore
		photoStore   readings.SweepablePhotoStore
		pinger       handlers.Pinger
		closePhotos  = func() error { return nil }
	)

	db, err := config.Connect(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		mem := storage.NewMemoryStore()
		readingStore, photoStore, pinger = mem, mem, mem
		log.Warn("using in-memory storage, readings are lost on restart")
	} else {
		gs := storage.NewGormReadingStore(db)
		readingStore, pinger = gs, gs
		photoStore, closePhotos, err = storage.NewPhotoStore(ctx, storage.PhotoConfig{
			UseGCS:          cfg.UseGCS,
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			CredentialsFile: cfg.CredentialsFile,
			LocalDir:        cfg.UploadDir,
		})
		if err != nil {
			return fmt.Errorf("photo storage: %w", err)
		}
	}
	defer closePhotos()

	if sweepOnly {
		res, err := readings.SweepOrphanPhotos(ctx, photoStore, readingStore, time.Now().Add(-cfg.OrphanGracePeriod))
		if res != nil {
			log.WithFields(log.Fields{
				"checked": res.Checked,
				"deleted": len(res.Deleted),
				"failed":  len(res.Failed),
			}).Info("orphan sweep finished")
		}
		return err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(promRegistry)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	feed := readings.NewFeed(64)
	feed.OnDrop(m.FeedDropped)

	queries := readings.NewQueryService(readingStore, photoStore)
	poller := dashboard.NewPoller(queries, cfg.PollInterval, dashboard.WithPollObserver(m.RecordPoll))

	opts := []readings.Option{
		readings.WithObserver(m),
		readings.WithNotifier(feed),
		readings.WithNotifier(poller),
	}
	if cfg.MQTTBroker != "" {
		pub, err := mqtt.Connect(ctx, mqtt.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.WithError(err).Warn("mqtt disabled")
		} else {
			defer pub.Close()
			opts = append(opts, readings.WithNotifier(pub))
		}
	}
	submissions := readings.NewSubmissionService(readingStore, photoStore, registry, opts...)

	hub := dashboard.NewHub(m.LiveClients)
	go hub.Run(ctx, feed.Subscribe(ctx))
	go poller.Run(ctx)

	h := handlers.New(handlers.Deps{
		Resolver:       sites.NewResolver(registry),
		Submissions:    submissions,
		Queries:        queries,
		Poller:         poller,
		Store:          pinger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	handler := routes.RegisterRoutes(h, routes.Options{
		Live:     hub,
		Registry: promRegistry,
		Recorder: m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           enableCORS(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "version": Version}).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Required CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		// Handle preflight (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
