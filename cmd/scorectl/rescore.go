package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-scoring/internal/cache"
	"github.com/stemsi/exstem-scoring/internal/database"
	"github.com/stemsi/exstem-scoring/internal/queue"
	"github.com/stemsi/exstem-scoring/internal/repository"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/service"
)

func newRescoreCmd() *cobra.Command {
	var testID string

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Queue every finished submission of a test for re-scoring",
		Long: "Queues every finished submission of a test onto the rescore queue.\n" +
			"A running server's RescoreWorker picks the jobs up.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(testID)
			if err != nil {
				return fmt.Errorf("invalid --test-id: %w", err)
			}

			ctx := cmd.Context()
			cfg, log := loadEnv(cmd)

			pool, err := database.NewPostgresPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := database.NewRedisClient(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer rdb.Close()

			engine := scoring.New(scoring.WithLogger(log))
			tests := service.NewTestService(repository.NewTestRepository(pool), cache.NewRedis(rdb), engine, cfg.DefaultVariant, log)
			rescore := service.NewRescoreService(repository.NewSubmissionRepository(pool), tests, queue.NewRedisQueue(rdb), cfg.RescorePageSize, log)

			queued, err := rescore.Enqueue(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d submission(s) of test %s\n", queued, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&testID, "test-id", "", "Test UUID")
	_ = cmd.MarkFlagRequired("test-id")
	return cmd
}
