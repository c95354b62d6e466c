package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KamoLovesCode/news/internal/bus"
	"github.com/KamoLovesCode/news/internal/config"
	"github.com/KamoLovesCode/news/internal/natsserver"
	"github.com/KamoLovesCode/news/internal/news"
	"github.com/KamoLovesCode/news/internal/prefs"
	"github.com/KamoLovesCode/news/internal/speech"
)

// Runtime wires configuration, the speech session manager, the news
// aggregator and the optional bus bridge into one process.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	store, err := prefs.Open(ctx, r.cfg.Speech.PrefsPath, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open prefs store: %w", err)
	}
	defer store.Close()

	manager, err := r.buildSpeechManager(store)
	if err != nil {
		return err
	}
	defer manager.Close()

	sources := []news.Source{
		news.NewNewsDataSource(r.cfg.News, nil),
		news.NewNewsAPISource(r.cfg.News, nil),
	}
	aggregator := news.NewAggregator(sources, r.cfg.News.MaxArticles, r.cfg.News.FilterPaywall,
		time.Duration(r.cfg.News.FetchTimeout)*time.Millisecond, r.logger)

	if r.cfg.Bus.Enabled {
		embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		defer embedded.Shutdown()

		busClient, err := bus.Connect(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
		defer busClient.Close()

		bridge := bus.NewBridge(busClient, manager.Events(), r.logger)
		defer bridge.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricHandler != nil {
		mux.Handle("/metrics", metricHandler)
	}
	handlers := &api{mgr: manager, news: aggregator, logger: r.logger}
	handlers.register(mux)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildSpeechManager(store *prefs.Store) (*speech.Manager, error) {
	sc := r.cfg.Speech

	defaultEngine, err := speech.ParseEngine(sc.DefaultEngine)
	if err != nil {
		return nil, fmt.Errorf("invalid default engine: %w", err)
	}
	defaults := speech.SynthesisConfig{
		Engine:      defaultEngine,
		Voice:       sc.DefaultVoice,
		Speed:       sc.DefaultSpeed,
		Volume:      sc.DefaultVolume,
		AutoCleanup: sc.AutoCleanup,
	}

	metrics, err := speech.NewMetrics()
	if err != nil {
		r.logger.Warn("speech metrics disabled", slog.String("error", err.Error()))
	}

	opts := speech.Options{
		Store:             store,
		Events:            &speech.Events{},
		Logger:            r.logger,
		Metrics:           metrics,
		Defaults:          defaults,
		SynthesizeTimeout: time.Duration(sc.SynthesizeTimeout) * time.Millisecond,
	}

	if sc.Mode == "mock" {
		opts.Backend = speech.NewMockBackend()
		opts.Local = &speech.MockLocalEngine{Delay: 2 * time.Second}
		opts.Player = &speech.MockPlayer{Delay: 2 * time.Second}
		return speech.NewManager(opts), nil
	}

	opts.Backend = speech.NewClient(sc.ServerURL, time.Duration(sc.ProbeTimeout)*time.Millisecond)
	local, err := speech.NewExecLocalEngine(sc.LocalCommand)
	if err != nil {
		return nil, fmt.Errorf("invalid local speech command: %w", err)
	}
	opts.Local = local
	player, err := speech.NewExecPlayer(sc.PlayerCommand)
	if err != nil {
		return nil, fmt.Errorf("invalid player command: %w", err)
	}
	opts.Player = player
	return speech.NewManager(opts), nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
