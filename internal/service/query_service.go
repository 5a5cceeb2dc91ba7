package service

import (
	"context"
	"errors"
	"strings"

	"holding-rag/internal/models"

	"go.uber.org/zap"
)

// PromptComposer is the retrieval step producing the prompt for generation.
type PromptComposer interface {
	ComposePrompt(ctx context.Context, identity *models.Identity, query string) (*models.ComposedPrompt, error)
}

// Generator answers a composed prompt with model text.
type Generator interface {
	Generate(ctx context.Context, prompt *models.ComposedPrompt) (string, error)
}

// QueryService ties retrieval and generation together. Generation is only
// ever attempted after a successful retrieval step.
type QueryService struct {
	retrieval PromptComposer
	generator Generator
	logger    *zap.Logger
}

func NewQueryService(retrieval PromptComposer, generator Generator, logger *zap.Logger) *QueryService {
	return &QueryService{
		retrieval: retrieval,
		generator: generator,
		logger:    logger,
	}
}

// HandleQuery answers a raw user query for the given identity. Retrieval
// errors propagate unchanged; an empty completion becomes ErrNoAnswerFound.
func (s *QueryService) HandleQuery(ctx context.Context, identity *models.Identity, rawText string) (string, error) {
	prompt, err := s.retrieval.ComposePrompt(ctx, identity, rawText)
	if err != nil {
		return "", err
	}

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrEmptyCompletion) {
			return "", ErrNoAnswerFound
		}
		return "", err
	}

	if strings.TrimSpace(answer) == "" {
		return "", ErrNoAnswerFound
	}

	s.logger.Info("Query answered",
		zap.String("username", identity.Username),
		zap.String("tenant", prompt.Tenant),
	)

	return answer, nil
}
