package service

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

// ScoringService scores ad-hoc payloads without touching storage.
type ScoringService struct {
	engine         *scoring.Engine
	defaultVariant scoring.Variant
	log            zerolog.Logger
}

// NewScoringService creates a new ScoringService.
func NewScoringService(engine *scoring.Engine, defaultVariant string, log zerolog.Logger) *ScoringService {
	return &ScoringService{
		engine:         engine,
		defaultVariant: scoring.ParseVariant(defaultVariant),
		log:            log.With().Str("component", "scoring_service").Logger(),
	}
}

// Evaluate scores answers against test. A variant on the request overrides
// the one declared by the definition.
func (s *ScoringService) Evaluate(req model.EvaluateRequest) (scoring.ScoreResult, error) {
	def, err := scoring.ParseTestDefinition(req.Test)
	if err != nil {
		return scoring.ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	bag, err := scoring.ParseAnswerBag(req.Answers)
	if err != nil {
		return scoring.ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if req.Variant != "" {
		def.Variant = req.Variant
	}

	res := s.engine.Score(def, bag)
	if !res.Scorable() {
		s.log.Debug().Msg("Evaluated payload has no scorable questions")
	}
	return res, nil
}

// Band converts a raw correct count to a band.
func (s *ScoringService) Band(correct int, variant string) model.BandResponse {
	v := s.defaultVariant
	if variant != "" {
		v = scoring.ParseVariant(variant)
	}
	return model.BandResponse{
		Correct: correct,
		Variant: string(v),
		Band:    scoring.BandFromCorrect(correct, v),
	}
}
