package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/cache"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

// TestService handles test definition business logic.
type TestService struct {
	repo           TestStore
	cache          DefinitionCache
	engine         *scoring.Engine
	defaultVariant string
	log            zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(repo TestStore, cache DefinitionCache, engine *scoring.Engine, defaultVariant string, log zerolog.Logger) *TestService {
	return &TestService{
		repo:           repo,
		cache:          cache,
		engine:         engine,
		defaultVariant: string(scoring.ParseVariant(defaultVariant)),
		log:            log.With().Str("component", "test_service").Logger(),
	}
}

// Create validates and stores a new test, then warms its cache entry.
func (s *TestService) Create(ctx context.Context, req model.CreateTestRequest) (*model.Test, error) {
	def, count, err := s.inspect(req.Definition)
	if err != nil {
		return nil, err
	}

	t := &model.Test{
		Title:      req.Title,
		Variant:    s.pickVariant(req.Variant, def.Variant),
		Definition: req.Definition,
	}
	if err := s.repo.Create(ctx, t, count); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.warm(ctx, t)
	return t, nil
}

// GetByID returns a stored test.
func (s *TestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return t, nil
}

// Update changes a test. A new definition is validated like on create.
func (s *TestService) Update(ctx context.Context, id uuid.UUID, req model.UpdateTestRequest) (*model.Test, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(req.Definition) > 0 {
		t.Definition = req.Definition
	}
	def, count, err := s.inspect(t.Definition)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		t.Title = req.Title
	}
	if req.Variant != "" || len(req.Definition) > 0 {
		t.Variant = s.pickVariant(req.Variant, def.Variant)
	}

	if err := s.repo.Update(ctx, t, count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("update test: %w", err)
	}

	s.warm(ctx, t)
	return t, nil
}

// Delete removes a test and evicts its cache entry.
func (s *TestService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if !deleted {
		return ErrTestNotFound
	}
	if err := s.cache.DeleteDefinition(ctx, id.String()); err != nil {
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Failed to evict test cache")
	}
	return nil
}

// List returns a page of tests.
func (s *TestService) List(ctx context.Context, q model.ListTestsQuery) ([]model.TestSummary, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	return s.repo.List(ctx, q.Page, q.PerPage, q.Variant)
}

// Definition returns the parsed definition of a test, reading through the
// cache. The stored variant is applied to the definition.
func (s *TestService) Definition(ctx context.Context, id uuid.UUID) (scoring.TestDefinition, error) {
	raw, variant, err := s.cache.Definition(ctx, id.String())
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Definition cache read failed, using database")
		}
		t, err := s.GetByID(ctx, id)
		if err != nil {
			return scoring.TestDefinition{}, err
		}
		s.warm(ctx, t)
		raw, variant = t.Definition, t.Variant
	}

	def, err := scoring.ParseTestDefinition(raw)
	if err != nil {
		return scoring.TestDefinition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if variant != "" {
		def.Variant = variant
	}
	return def, nil
}

// PrewarmAllCaches loads every test definition into Redis on startup.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list tests: %w", err)
	}

	if len(tests) == 0 {
		s.log.Info().Msg("No tests to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(tests)).Msg("Prewarming tests...")

	warmed := 0
	for i := range tests {
		if err := s.cache.SetDefinition(ctx, tests[i].ID.String(), tests[i].Definition, tests[i].Variant); err != nil {
			s.log.Warn().
				Err(err).
				Str("test_id", tests[i].ID.String()).
				Msg("Failed to warm test, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(tests)).
		Msg("Test cache prewarm complete")
	return nil
}

// inspect parses a definition and counts its scorable rows against an empty
// answer bag.
func (s *TestService) inspect(raw []byte) (scoring.TestDefinition, int, error) {
	def, err := scoring.ParseTestDefinition(raw)
	if err != nil {
		return def, 0, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	res := s.engine.Score(def, scoring.AnswerBag{})
	if !res.Scorable() {
		return def, 0, fmt.Errorf("%w: no scorable questions", ErrInvalidDefinition)
	}
	return def, res.TotalCount, nil
}

func (s *TestService) pickVariant(requested, declared string) string {
	switch {
	case requested != "":
		return requested
	case declared != "":
		return string(scoring.ParseVariant(declared))
	default:
		return s.defaultVariant
	}
}

func (s *TestService) warm(ctx context.Context, t *model.Test) {
	if err := s.cache.SetDefinition(ctx, t.ID.String(), t.Definition, t.Variant); err != nil {
		s.log.Warn().Err(err).Str("test_id", t.ID.String()).Msg("Failed to cache test definition")
	}
}
