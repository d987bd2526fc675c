package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/bridge"
	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/chat"
	"lumiere-assistant-backend/internal/config"
	"lumiere-assistant-backend/internal/db"
	"lumiere-assistant-backend/internal/dialogue"
	"lumiere-assistant-backend/internal/llm"
	"lumiere-assistant-backend/internal/logging"
	"lumiere-assistant-backend/internal/mailer"
	"lumiere-assistant-backend/internal/metrics"
	"lumiere-assistant-backend/internal/retrieval"
	"lumiere-assistant-backend/internal/server"
	"lumiere-assistant-backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Load(cfg.MenuFile)
	if err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}
	faq, err := catalog.LoadFAQ(cfg.FAQFile)
	if err != nil {
		return fmt.Errorf("failed to load faq: %w", err)
	}
	policy, err := dialogue.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	prompts, err := bridge.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	logger.Info("catalog loaded", zap.Int("items", len(cat.Items())), zap.Int("faq_lines", len(faq)))

	m := metrics.New()

	backend, err := llm.New(llmOptions(cfg))
	if err != nil {
		return err
	}

	bridgeOpts := []bridge.Option{
		bridge.WithTimeout(cfg.LLMTimeout),
		bridge.WithFailureRecorder(m),
		bridge.WithLogger(logger),
	}
	if cfg.RetrievalEnabled {
		index := retrieval.NewIndex(retrieval.Documents(cat, faq), backend, logger)
		buildCtx, buildCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := index.Build(buildCtx); err != nil {
			logger.Warn("retrieval index not embedded, using lexical ranking", zap.Error(err))
		}
		buildCancel()
		bridgeOpts = append(bridgeOpts, bridge.WithRetriever(index, cfg.RetrievalK))
	}
	br := bridge.New(backend, cat, prompts, bridgeOpts...)

	sender, err := mailer.New(ctx, mailer.Options{
		Transport:         cfg.MailTransport,
		SMTPServer:        cfg.SMTPServer,
		SMTPPort:          cfg.SMTPPort,
		SMTPUser:          cfg.SMTPUser,
		SMTPPass:          cfg.SMTPPass,
		From:              cfg.MailFrom,
		RelayURL:          cfg.MailRelayURL,
		RelayTokenURL:     cfg.MailRelayTokenURL,
		RelayClientID:     cfg.MailRelayClientID,
		RelayClientSecret: cfg.MailRelayClientSecret,
		RelayScopes:       cfg.MailRelayScopes,
	})
	if err != nil {
		return err
	}

	sessions, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := dialogue.NewHandler(cat, policy, br, sender,
		dialogue.WithRecorder(m),
		dialogue.WithLogger(logger.Named("dialogue")),
	)
	svc := chat.NewService(sessions, handler,
		chat.WithObserver(m),
		chat.WithLogger(logger),
		chat.WithHistoryLimit(cfg.SessionHistoryLimit),
	)

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.AllowedOrigin),
	}
	if health != nil {
		serverOpts = append(serverOpts, server.WithHealthCheck(health))
	}
	if cfg.MetricsEnabled {
		serverOpts = append(serverOpts, server.WithMetrics(m.Handler()))
	}
	s := server.NewServer(svc, cat, serverOpts...)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Maison Lumière assistant listening",
			zap.String("addr", httpServer.Addr),
			zap.String("llm", backend.Name()),
			zap.String("session_store", cfg.SessionStore),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func llmOptions(cfg config.Config) llm.Options {
	if cfg.LLMProvider == "openai" {
		return llm.Options{
			Provider:   "openai",
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			EmbedModel: cfg.OpenAIEmbedModel,
		}
	}
	return llm.Options{
		Provider:   cfg.LLMProvider,
		BaseURL:    cfg.OllamaURL,
		Model:      cfg.OllamaModel,
		EmbedModel: cfg.OllamaEmbedModel,
	}
}

// openStore returns the configured session store, an optional health check
// and a close func.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, func(context.Context) error, func(), error) {
	noop := func() {}
	switch cfg.SessionStore {
	case "memory", "":
		return store.NewMemoryStore(cfg.SessionHistoryLimit), nil, noop, nil
	case "file":
		logger.Info("using file session store", zap.String("dir", cfg.SessionDir))
		return store.NewFileStore(cfg.SessionDir, cfg.SessionHistoryLimit), nil, noop, nil
	case "postgres":
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("database connection established")
		if err := database.RunMigrations(ctx, db.Migrations()); err != nil {
			database.Close()
			return nil, nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		closeDB := func() {
			if err := database.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}
		return store.NewDatabaseStore(database, cfg.SessionHistoryLimit), database.HealthCheck, closeDB, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}
