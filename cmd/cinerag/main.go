package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/ai"
	"github.com/cinerag/cinerag/internal/config"
	"github.com/cinerag/cinerag/internal/db"
	"github.com/cinerag/cinerag/internal/embedcache"
	"github.com/cinerag/cinerag/internal/filestore"
	"github.com/cinerag/cinerag/internal/handler"
	"github.com/cinerag/cinerag/internal/job"
	"github.com/cinerag/cinerag/internal/middleware"
	"github.com/cinerag/cinerag/internal/pkg/jwt"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/internal/schedule"
	"github.com/cinerag/cinerag/internal/service"
	"github.com/cinerag/cinerag/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cinerag",
		Short: "cinerag movie answering service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the cinerag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return runServer(cfg, conn)
		},
	}

	var datasetKey string
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "load a movie dataset into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if datasetKey == "" {
				return fmt.Errorf("--dataset is required")
			}
			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return runLoad(cfg, conn, datasetKey)
		},
	}
	loadCmd.Flags().StringVar(&datasetKey, "dataset", "", "dataset key in the configured source")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "interactive question loop against the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return runChat(cfg, conn)
		},
	}

	var tokenSubject string
	var tokenRole string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an admin JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if tokenSubject == "" {
				return fmt.Errorf("--subject is required")
			}
			token, err := jwt.GenerateToken(tokenSubject, tokenRole, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "token role")

	rootCmd.AddCommand(runCmd, loadCmd, chatCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

// buildEmbedder assembles the embed failover group and layers the LRU and
// database caches in front of it. The DB layer sits innermost so LRU misses
// still avoid provider calls after a restart.
func buildEmbedder(cfg *config.Config, embedCacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.AI.Embed))
	for _, pc := range cfg.AI.Embed {
		provider, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Provider + "/" + pc.Model,
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if embedder == nil {
		return nil, fmt.Errorf("no embed provider configured")
	}
	if cfg.EmbedCache.EnableDB && embedCacheRepo != nil {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.EmbedCache.LRUSize,
		time.Duration(cfg.EmbedCache.LRUTTLMinutes)*time.Minute)
	return embedder, nil
}

func buildCompleter(cfg *config.Config) (ai.ICompleter, error) {
	opts := ai.ChatOptions{Temperature: cfg.Pipeline.Temperature}
	entries := make([]ai.CompleterEntry, 0, len(cfg.AI.Chat))
	for _, pc := range cfg.AI.Chat {
		provider, err := ai.NewChatProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init chat provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.CompleterEntry{
			Name:      pc.Provider + "/" + pc.Model,
			Completer: ai.NewCompleter(provider, pc.Model, opts),
		})
	}
	completer := ai.NewGroupCompleter(entries)
	if completer == nil {
		return nil, fmt.Errorf("no chat provider configured")
	}
	return completer, nil
}

type app struct {
	movieRepo      *repo.MovieRepo
	exchangeRepo   *repo.ExchangeRepo
	embedCacheRepo *repo.EmbeddingCacheRepo
	contexts       store.ContextStore
	rag            *service.RAGService
	catalog        *service.CatalogService
}

func buildApp(cfg *config.Config, conn *sql.DB) (*app, error) {
	movieRepo := repo.NewMovieRepo(conn)
	exchangeRepo := repo.NewExchangeRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	embedder, err := buildEmbedder(cfg, embedCacheRepo)
	if err != nil {
		return nil, err
	}
	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}

	contexts, err := store.New(cfg.ContextStore, conn)
	if err != nil {
		return nil, fmt.Errorf("init context store: %w", err)
	}
	if err := contexts.Init(context.Background(), cfg.AI.Dimension); err != nil {
		return nil, fmt.Errorf("provision context store: %w", err)
	}

	rag := service.NewRAGService(embedder, completer, exchangeRepo, contexts, service.RAGConfig{
		Dimension:        cfg.AI.Dimension,
		CacheThreshold:   cfg.Pipeline.CacheThreshold,
		ContextThreshold: cfg.Pipeline.ContextThreshold,
		ContextLimit:     cfg.Pipeline.ContextLimit,
		HistoryLimit:     cfg.Pipeline.HistoryLimit,
		Timeout:          cfg.AI.Timeout,
		MaxInputChars:    cfg.AI.MaxInputChars,
		StrictContext:    *cfg.Pipeline.StrictContext,
		SystemPrompt:     cfg.Pipeline.SystemPrompt,
	})
	catalog := service.NewCatalogService(movieRepo, contexts, embedder, cfg.AI.Dimension, cfg.Dataset.BatchSize, cfg.AI.MaxInputChars)

	return &app{
		movieRepo:      movieRepo,
		exchangeRepo:   exchangeRepo,
		embedCacheRepo: embedCacheRepo,
		contexts:       contexts,
		rag:            rag,
		catalog:        catalog,
	}, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("context_store", cfg.ContextStore.Type),
	)

	application, err := buildApp(cfg, conn)
	if err != nil {
		return err
	}
	defer application.contexts.Close()

	source, err := filestore.New(cfg.Dataset.Source)
	if err != nil {
		return fmt.Errorf("init dataset source: %w", err)
	}

	deps := handler.RouterDeps{
		Chat:            handler.NewChatHandler(application.rag),
		Movies:          handler.NewMovieHandler(application.catalog, cfg.Pipeline.ContextThreshold),
		Admin:           handler.NewAdminHandler(application.catalog, source, application.exchangeRepo, application.embedCacheRepo),
		JWTSecret:       []byte(cfg.JWTSecret),
		RateLimitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbedCacheCleanupJob(application.embedCacheRepo, cfg.EmbedCache.MaxAgeDays), cfg.EmbedCache.CleanupCron); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewCacheStatsJob(application.exchangeRepo, application.embedCacheRepo), cfg.EmbedCache.StatsCron); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func runLoad(cfg *config.Config, conn *sql.DB, datasetKey string) error {
	application, err := buildApp(cfg, conn)
	if err != nil {
		return err
	}
	defer application.contexts.Close()

	source, err := filestore.New(cfg.Dataset.Source)
	if err != nil {
		return fmt.Errorf("init dataset source: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, err := source.Open(ctx, datasetKey)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", datasetKey, err)
	}
	defer reader.Close()

	loaded, err := application.catalog.Load(ctx, reader)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	fmt.Printf("loaded %d movies\n", loaded)
	return nil
}

func runChat(cfg *config.Config, conn *sql.DB) error {
	application, err := buildApp(cfg, conn)
	if err != nil {
		return err
	}
	defer application.contexts.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("ask about movies, empty line to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}
		answer, err := application.rag.Answer(ctx, question)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		tag := ""
		if answer.Cached {
			tag = " (cached)"
		}
		fmt.Printf("%s\n[%dms%s]\n", answer.Text, answer.Elapsed.Milliseconds(), tag)
	}
	return scanner.Err()
}
