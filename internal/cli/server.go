package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/config"
	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/memory"
	"weekly-challenge/internal/infra/postgres"
	infraredis "weekly-challenge/internal/infra/redis"
	"weekly-challenge/internal/infra/rewards"
	transport "weekly-challenge/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the challenge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type rewardBackend interface {
	app.RewardLedger
	app.AchievementTracker
}

type stores struct {
	schedule    app.Schedule
	challenges  app.ChallengeRepository
	attempts    app.AttemptStore
	leaderboard app.LeaderboardStore
	locker      app.Locker
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
	}

	s := buildStores(cfg, redisClient, pool, db)

	var backend rewardBackend = memory.NewRewards()
	if cfg.Rewards.BaseURL != "" {
		backend = rewards.NewClient(cfg.Rewards.BaseURL, cfg.Rewards.APIKey, config.TTLDuration(cfg.Rewards.Timeout, 5*time.Second))
	} else {
		log.Printf("rewards.baseUrl not set, recording xp and achievements in memory")
	}

	board := app.NewLeaderboardService(s.leaderboard, s.locker, time.Now)
	hub := app.NewStandingsHub(board, cfg.Challenge.LeaderboardLimit)
	completion := app.NewCompletionHandler(backend, backend, board, hub, app.LogSink{})

	opts := []app.Option{app.WithCooldown(config.TTLDuration(cfg.Challenge.Cooldown, domain.RetryCooldown))}
	if s.locker != nil {
		opts = append(opts, app.WithLocker(s.locker))
	}
	service := app.NewChallengeService(s.challenges, s.attempts, completion, backend, opts...)

	warm := func() {
		id, err := app.WarmActiveChallenge(ctx, s.schedule, s.challenges, time.Now())
		if err != nil {
			log.Printf("warm active challenge: %v", err)
			return
		}
		log.Printf("active challenge %s loaded", id)
	}
	warm()
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Challenge.Schedule, warm); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := transport.NewRouter(
		transport.NewHandler(service, board, s.schedule),
		transport.NewWSHandler(service, hub),
		transport.RouterConfig{JWTSecret: cfg.Auth.JWTSecret, AllowedOrigins: cfg.Server.AllowedOrigins},
	)
	if cfg.Auth.JWTSecret == "" {
		log.Printf("auth.jwtSecret not set, trusting X-User-ID header")
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting weekly challenge service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// buildStores prefers Postgres, then Redis, then memory for each port.
// Redis, when present, always fronts challenge reads and provides the shared lock.
func buildStores(cfg config.Config, redisClient *redis.Client, pool *pgxpool.Pool, db *bun.DB) stores {
	var s stores
	cacheTTL := config.TTLDuration(cfg.Challenge.CacheTTL, 10*time.Minute)

	var loader memory.ChallengeLoader
	if pool != nil {
		loader = postgres.NewChallengeLoader(pool)
		s.schedule = postgres.NewSchedule(pool)
	} else {
		sample := sampleChallenge(time.Now())
		loader = memory.NewStaticChallengeLoader(map[string]domain.Challenge{sample.ID: sample})
		s.schedule = memory.NewSchedule(sample)
		log.Printf("postgres not configured, serving sample challenge %s", sample.ID)
	}

	if redisClient != nil {
		s.challenges = infraredis.NewChallengeRepository(redisClient, loader, cacheTTL)
		s.locker = infraredis.NewLocker(redisClient, config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second))
	} else {
		s.challenges = memory.NewChallengeRepository(loader, cacheTTL)
	}

	switch {
	case pool != nil:
		s.attempts = postgres.NewAttemptStore(pool)
		s.leaderboard = postgres.NewLeaderboardStore(db)
	case redisClient != nil:
		s.attempts = infraredis.NewAttemptStore(redisClient)
		s.leaderboard = infraredis.NewLeaderboardStore(redisClient)
	default:
		s.attempts = memory.NewAttemptStore()
		s.leaderboard = memory.NewLeaderboardStore()
	}
	return s
}
