package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"weekly-challenge/internal/config"
	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/postgres"
	infraredis "weekly-challenge/internal/infra/redis"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by `seed --file`.
type seedFile struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	WeekStart string            `yaml:"weekStart"`
	Questions []domain.Question `yaml:"questions"`
}

// NewSeedCmd validates a challenge file and upserts it into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a weekly challenge from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "challenge.yaml", "challenge YAML file")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	challenge, err := readChallengeFile(file)
	if err != nil {
		return err
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()
	if _, err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	if err := postgres.NewSeeder(db).SeedChallenge(ctx, challenge); err != nil {
		return err
	}
	log.Printf("seeded challenge %s for week of %s", challenge.ID, challenge.WeekStart.Format("2006-01-02"))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		// Drop the cached copy so running instances pick up the new questions.
		if err := infraredis.NewChallengeRepository(client, nil, 0).Invalidate(ctx, challenge.ID); err != nil {
			log.Printf("invalidate cached challenge %s: %v", challenge.ID, err)
		}
	}
	return nil
}

func readChallengeFile(path string) (domain.Challenge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Challenge{}, err
	}
	var raw seedFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.Challenge{}, fmt.Errorf("parse %s: %w", path, err)
	}
	week, err := time.Parse("2006-01-02", raw.WeekStart)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("weekStart: %w", err)
	}
	challenge := domain.Challenge{
		ID:        raw.ID,
		Title:     raw.Title,
		WeekStart: domain.WeekStart(week),
		Questions: raw.Questions,
	}
	if err := challenge.Validate(); err != nil {
		return domain.Challenge{}, err
	}
	return challenge, nil
}
