package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-scoring/internal/database"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/repository"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/service"
)

func newExportCmd() *cobra.Command {
	var (
		testID string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the results workbook of a test to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(testID)
			if err != nil {
				return fmt.Errorf("invalid --test-id: %w", err)
			}
			if out == "" {
				out = fmt.Sprintf("results-%s.xlsx", id)
			}

			ctx := cmd.Context()
			cfg, log := loadEnv(cmd)

			pool, err := database.NewPostgresPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			tests := storedDefinitions{repo: repository.NewTestRepository(pool)}
			export := service.NewExportService(repository.NewSubmissionRepository(pool), tests, log)

			f, err := export.Workbook(ctx, id)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("save workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&testID, "test-id", "", "Test UUID")
	cmd.Flags().StringVar(&out, "out", "", "Output path (default results-<test-id>.xlsx)")
	_ = cmd.MarkFlagRequired("test-id")
	return cmd
}

// storedDefinitions reads definitions straight from Postgres so export
// works without Redis.
type storedDefinitions struct {
	repo interface {
		GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	}
}

func (s storedDefinitions) Definition(ctx context.Context, id uuid.UUID) (scoring.TestDefinition, error) {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.TestDefinition{}, service.ErrTestNotFound
	}
	if err != nil {
		return scoring.TestDefinition{}, err
	}
	def, err := scoring.ParseTestDefinition(t.Definition)
	if err != nil {
		return scoring.TestDefinition{}, fmt.Errorf("%w: %v", service.ErrInvalidDefinition, err)
	}
	def.Variant = t.Variant
	return def, nil
}
