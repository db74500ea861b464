package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notespace/config"
	"notespace/dto"
	"notespace/handler"
	"notespace/middleware"
	"notespace/model"
	"notespace/repository"
	"notespace/services"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	notificationFeedSize = 100
	autoRefreshInterval  = 10 * time.Second
	shutdownTimeout      = 10 * time.Second
)

// app holds everything the router and the shutdown path need.
type app struct {
	cfg      *config.Config
	tables   repository.Tables
	redis    *redis.Client
	auth     *services.GoTrueClient
	sessions *usecase.SessionManager
	store    *usecase.NotesStore
	feed     *services.NotificationFeed
}

func openTables(ctx context.Context, cfg *config.Config, tokens repository.TokenSource) (repository.Tables, error) {
	db := cfg.Database
	switch db.Backend {
	case config.BackendMongo:
		tables, err := repository.NewMongoTables(ctx, db.MongoURI, db.MongoDB, db.MaxPoolSize, db.MaxConnIdleTime)
		if err != nil {
			return nil, err
		}
		if err := tables.SetupIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to set up indexes")
		}
		return tables, nil

	case config.BackendPostgres:
		if db.Migrate {
			if err := repository.Migrate(db.PostgresURL); err != nil {
				return nil, err
			}
		}
		return repository.NewPostgresTables(ctx, db.PostgresURL)

	default:
		return repository.NewPostgrestTables(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RemoteTimeout, tokens), nil
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:  cfg,
		feed: services.NewNotificationFeed(notificationFeedSize),
	}

	a.auth = services.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RemoteTimeout,
		cfg.RefreshMargin, services.NewTokenParser(cfg.JWTSecret))

	tables, err := openTables(ctx, cfg, a.auth)
	if err != nil {
		return nil, err
	}
	a.tables = tables

	var (
		cache   services.SessionCache
		revoked services.RevokedTokens
	)
	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, keeping sessions in memory")
		} else {
			a.redis = client
			cache = services.NewRedisSessionCache(client, cfg.ClientID)
			revoked = services.NewRedisTokenBlacklist(client)
		}
	}

	a.sessions = usecase.NewSessionManager(a.auth, tables, tables, cache, revoked, a.feed, usecase.SessionManagerOptions{
		ConnectivityInterval: cfg.ConnectivityInterval,
		RefreshMargin:        cfg.RefreshMargin,
	})
	a.store = usecase.NewNotesStore(tables, tables, a.sessions, a.feed)

	a.sessions.OnChange(func(session *model.Session) {
		a.store.Reset()
		if session == nil {
			return
		}
		go a.load(ctx)
	})

	return a, nil
}

// load fills the store for a freshly signed-in user.
func (a *app) load(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.RemoteTimeout)
	defer cancel()

	if _, err := a.store.ListFolders(loadCtx); err != nil {
		log.Warn().Err(err).Msg("initial folder load failed")
	}
	if _, err := a.store.ListNotes(loadCtx); err != nil {
		log.Warn().Err(err).Msg("initial notes load failed")
	}
}

func (a *app) close(ctx context.Context) {
	if err := a.tables.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to close tables")
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
}

func setupRouter(a *app) *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(a.cfg.AllowedOrigins))
	router.Use(middleware.RequestSizeLimiter(a.cfg.MaxBodyBytes))

	stats := handler.NewStatsHandler(a.sessions, a.feed, a.cfg.Database.Backend)
	router.GET("/health", stats.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.NoStoreMiddleware())
	{
		api.GET("/session", func(c *gin.Context) {
			handler.GetSessionHandler(c, a.sessions)
		})
		api.GET("/notifications", stats.Notifications)

		auth := api.Group("/auth")
		auth.Use(middleware.WaitForSession(a.sessions))
		{
			auth.POST("/signin", func(c *gin.Context) {
				handler.SignInHandler(c, a.sessions)
			})
			auth.POST("/signup", func(c *gin.Context) {
				handler.SignUpHandler(c, a.sessions)
			})
			auth.POST("/signout", func(c *gin.Context) {
				handler.SignOutHandler(c, a.sessions)
			})
			auth.GET("/confirm", func(c *gin.Context) {
				handler.ConfirmEmailHandler(c, a.sessions)
			})
		}
	}

	protected := api.Group("")
	protected.Use(middleware.WaitForSession(a.sessions))
	protected.Use(middleware.AuthMiddleware(a.sessions))
	{
		protected.GET("/counts", func(c *gin.Context) {
			handler.GetCountsHandler(c, a.store)
		})

		notes := protected.Group("/notes")
		{
			notes.GET("", func(c *gin.Context) {
				handler.GetNotesHandler(c, a.store)
			})
			notes.POST("/refresh", func(c *gin.Context) {
				handler.RefreshNotesHandler(c, a.store)
			})
			notes.POST("", middleware.ValidateJSON[dto.CreateNoteRequest](), func(c *gin.Context) {
				handler.CreateNoteHandler(c, a.store)
			})
			notes.GET("/:id", func(c *gin.Context) {
				handler.GetNoteHandler(c, a.store)
			})
			notes.PATCH("/:id", func(c *gin.Context) {
				handler.UpdateNoteHandler(c, a.store)
			})
			notes.DELETE("/:id", func(c *gin.Context) {
				handler.DeleteNoteHandler(c, a.store)
			})

			// Lifecycle actions
			notes.POST("/:id/trash", func(c *gin.Context) {
				handler.TrashNoteHandler(c, a.store)
			})
			notes.POST("/:id/restore", func(c *gin.Context) {
				handler.RestoreNoteHandler(c, a.store)
			})
			notes.POST("/:id/archive", func(c *gin.Context) {
				handler.ArchiveNoteHandler(c, a.store)
			})
			notes.POST("/:id/unarchive", func(c *gin.Context) {
				handler.UnarchiveNoteHandler(c, a.store)
			})
			notes.POST("/:id/favorite", func(c *gin.Context) {
				handler.ToggleFavoriteHandler(c, a.store)
			})
			notes.POST("/:id/move", func(c *gin.Context) {
				handler.MoveNoteHandler(c, a.store)
			})
		}

		folders := protected.Group("/folders")
		{
			folders.GET("", func(c *gin.Context) {
				handler.GetFoldersHandler(c, a.store)
			})
			folders.POST("", func(c *gin.Context) {
				handler.CreateFolderHandler(c, a.store)
			})
			folders.PATCH("/:id", func(c *gin.Context) {
				handler.RenameFolderHandler(c, a.store)
			})
			folders.DELETE("/:id", func(c *gin.Context) {
				handler.DeleteFolderHandler(c, a.store)
			})
		}
	}

	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger(os.Getenv("GO_ENV"), "info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	utils.InitLogger(cfg.Env, cfg.LogLevel)
	utils.InitValidator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Database.Backend).Msg("failed to start")
	}

	a.sessions.Start(ctx)
	go a.auth.AutoRefresh(ctx, autoRefreshInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", cfg.Database.Backend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	a.close(shutdownCtx)
	log.Info().Msg("server shutdown complete")
}
