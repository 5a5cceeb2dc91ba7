package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"holding-rag/internal/models"
	"holding-rag/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// LLMService sends composed prompts to GigaChat and returns completions
// verbatim. One blocking request per call, no retries.
type LLMService struct {
	client  *gigago.Client
	model   *gigago.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	// Deterministic sampling: answers must follow the retrieved content.
	model.Temperature = 0.0

	logger.Info("LLM service initialized", zap.String("model", cfg.Model))

	return &LLMService{
		client:  client,
		model:   model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

// Generate returns the model's completion for the prompt without any
// post-processing or truncation.
func (s *LLMService) Generate(ctx context.Context, prompt *models.ComposedPrompt) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt.Text},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		s.logger.Error("Generation failed",
			zap.String("tenant", prompt.Tenant),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
