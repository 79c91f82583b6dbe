package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"party-game-service/internal/app"
	"party-game-service/internal/config"
	"party-game-service/internal/infra/memory"
	"party-game-service/internal/infra/postgres"
	redisinfra "party-game-service/internal/infra/redis"
	"party-game-service/internal/infra/storage"
	"party-game-service/internal/realtime"
	transport "party-game-service/internal/transport/http"
	"party-game-service/internal/worker"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	games       app.GameRepository
	submissions app.SubmissionRepository
	analytics   app.AnalyticsRepository
	close       func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	codeTTL := config.TTLDuration(cfg.JoinCode.CacheTTL, 5*time.Minute)
	loader := app.CodeLoader{Games: st.games}
	var codeIndex app.CodeIndex
	if redisClient != nil {
		codeIndex = redisinfra.NewCodeCache(redisClient, loader, codeTTL)
	} else {
		codeIndex = memory.NewCodeCache(loader, codeTTL)
	}

	var limiter transport.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		window := config.TTLDuration(cfg.RateLimit.Window, time.Minute)
		if redisClient != nil {
			limiter = redisinfra.NewRateLimiter(redisClient, cfg.RateLimit.Requests, window)
		} else {
			limiter = memory.NewRateLimiter(cfg.RateLimit.Requests, window)
		}
	}

	hub := realtime.NewHub(0)
	var presence *redisinfra.RoomPresence
	if redisClient != nil {
		presence = redisinfra.NewRoomPresence(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		hub.WithPresence(presence)
	}

	codes := app.NewJoinCodeAllocator(st.games, codeIndex, cfg.JoinCode.Length, cfg.JoinCode.MaxAttempts)
	games := app.NewGameService(st.games, st.submissions, codes, hub)
	scoring := app.NewScoringEngine(cfg.SpeedBonusRate(app.DefaultSpeedBonusRate))

	svc := transport.Services{
		Games:       games,
		Submissions: app.NewSubmissionService(st.games, st.submissions, scoring, hub),
		Moderation:  app.NewModerationService(st.games, st.submissions, hub),
		Leaderboard: app.NewLeaderboardService(st.games, st.submissions),
		Analytics:   app.NewAnalyticsService(st.games, st.analytics),
		Limiter:     limiter,
		WS:          transport.NewWSHandler(hub, st.games),
	}
	if cfg.Storage.Bucket != "" {
		media, err := storage.NewS3Store(ctx, storage.Options{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return err
		}
		svc.Media = media
	}
	if presence != nil {
		svc.Presence = presence
		refresher := worker.NewPresenceWorker(hub, presence.TTL())
		if err := refresher.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := refresher.Stop(); err != nil {
				log.Printf("[presence] stop: %v", err)
			}
		}()
	}

	expiry := worker.NewExpiryWorker(games, config.TTLDuration(cfg.Expiry.Interval, 30*time.Second))
	if err := expiry.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := expiry.Stop(); err != nil {
			log.Printf("[expiry] stop: %v", err)
		}
	}()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewAPI(svc).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting game service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores picks Postgres when configured and falls back to in-memory repositories.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Postgres.URL == "" {
		log.Printf("postgres url not configured; using in-memory storage")
		subs := memory.NewSubmissionRepository()
		return stores{
			games:       memory.NewGameRepository(),
			submissions: subs,
			analytics:   subs,
			close:       func() {},
		}, nil
	}

	db := openBun(cfg.Postgres.URL)
	if err := migrateDB(ctx, db); err != nil {
		db.Close()
		return stores{}, err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return stores{}, err
	}
	return stores{
		games:       postgres.NewGameRepository(db),
		submissions: postgres.NewSubmissionRepository(db),
		analytics:   postgres.NewAnalyticsReader(pool),
		close: func() {
			pool.Close()
			db.Close()
		},
	}, nil
}
