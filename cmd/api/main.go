package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/analytics"
	"github.com/dkarki/twinfolio/internal/config"
	"github.com/dkarki/twinfolio/internal/handler"
	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/language"
	"github.com/dkarki/twinfolio/internal/service/memory"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
	"github.com/dkarki/twinfolio/internal/service/search"
	"github.com/dkarki/twinfolio/internal/service/strategy"
	"github.com/dkarki/twinfolio/internal/service/tools"
	"github.com/dkarki/twinfolio/internal/storage/logstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Production)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	health := map[string]bool{
		"ai":       cfg.AI.Enabled(),
		"search":   cfg.Search.Enabled(),
		"calendar": cfg.Calendar.Enabled(),
		"logstore": cfg.Log.Enabled(),
	}

	// Completion is optional: without it the pipeline still answers through
	// the keyword and canned fallback levels.
	var completer *completion.Service
	if cfg.AI.Enabled() {
		completer, err = completion.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("completion service unavailable, continuing without it", zap.Error(err))
			completer = nil
			health["ai"] = false
		}
	} else {
		logger.Info("ark credentials not configured, skipping completion service")
	}

	searcher := search.NewClient(cfg.Search, logger)
	if searcher == nil {
		logger.Info("search backend not configured, retrieval will fall back")
	}

	var logStore *logstore.Store
	if cfg.Log.Enabled() {
		logStore, err = logstore.Open(cfg.Log.SQLitePath, logger)
		if err != nil {
			logger.Warn("log store unavailable, continuing without it", zap.Error(err))
			logStore = nil
			health["logstore"] = false
		} else {
			defer logStore.Close()
			if err := logStore.SeedContent(ctx, profileContent()); err != nil {
				logger.Warn("content seeding failed", zap.Error(err))
			}
		}
	}

	memoryService := memory.NewService(memory.NewMapStore(), logger)
	languageService := language.NewService(completerOrNil(completer), logger)

	provider := action.NewProviderClient(cfg.Calendar)
	detector := action.NewDetector(provider, provider, cfg.Calendar.Enabled(),
		cfg.Calendar.OwnerEmail, cfg.Owner.Name, logger)

	recorder := analytics.NewRecorder(logger)
	defer recorder.Flush()

	registry := tools.NewRegistry(logger,
		&tools.GitHubRepos{User: cfg.Owner.GitHubUser},
		&tools.WorkHistory{Entries: workHistory()},
	)

	pipelineService := pipeline.NewService(
		memoryService,
		languageService,
		detector,
		buildStrategies(cfg, completer, searcher, registry, logger),
		logStore,
		recorder,
		logger,
	)

	router := handler.NewRouter(pipelineService, recorder, health, registry, logger)
	startServer(ctx, cfg.Server, router, logger)
}

// buildStrategies wires every executor whose dependencies are available.
func buildStrategies(cfg *config.Config, completer *completion.Service, searcher *search.Client, registry *tools.Registry, logger *zap.Logger) []strategy.Strategy {
	threshold := cfg.Search.TrustThreshold
	topK := cfg.Search.TopK
	prompts := completion.NewPromptBuilder(cfg.Owner.Name)

	keyword := search.NewKeywordScorer(profileDocuments())

	var searchPort search.Port
	if searcher != nil {
		searchPort = searcher
	} else {
		// The keyword scorer stands in so agentic strategies still ground
		// answers in profile text when the vector backend is down.
		searchPort = keyword
	}

	strategies := []strategy.Strategy{
		strategy.NewHybridSearch(searchPort, keyword, threshold, topK, cfg.Search.FusionMethod, logger),
	}

	if completer == nil {
		return strategies
	}

	orchestrator := tools.NewOrchestrator(registry, completer, logger)

	return append(strategies,
		strategy.NewStandardAgentic(searchPort, completer, prompts, threshold, topK, logger),
		strategy.NewAdvancedAgentic(searchPort, completer, prompts, threshold, topK, logger),
		strategy.NewMultiHop(searchPort, completer, prompts, threshold, topK, logger),
		strategy.NewToolEnhanced(searchPort, completer, prompts, orchestrator, threshold, topK, logger),
	)
}

// completerOrNil keeps the language service's interface field truly nil
// when completion is unavailable.
func completerOrNil(completer *completion.Service) language.Translator {
	if completer == nil {
		return nil
	}
	return completer
}

func newLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("twinfolio backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
