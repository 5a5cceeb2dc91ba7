package service

import (
	"context"
	"fmt"
	"strings"

	"holding-rag/internal/models"
	"holding-rag/internal/repository"
	"holding-rag/pkg/config"

	"go.uber.org/zap"
)

// Embedder turns query text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PassageSearcher serves top-k similarity searches over a tenant's index.
type PassageSearcher interface {
	Search(ctx context.Context, profile *models.TenantProfile, queryEmbedding []float32, topK int) ([]models.Passage, error)
}

// promptTemplate embeds, in order: the answer-from-retrieved-content and
// off-topic-decline instructions, the tenant description, the raw user
// query, and the retrieved passages. Composition is fully deterministic.
const promptTemplate = `لطفا به سوالات کاربر پاسخ بده
اگر کاربر سوالات یا ورودی های نامربوط مثل ضصخگهبدصثبخهدضصثب یا qoweufqwo;efbweff فرستاد جواب مناسب بده و بگو لطفا سوال مناسب بپرسید و فقط هم همین رو بگی و چیز دیگه ای نگی
سعی کن جواب های مرتبط به سوال کاربر بدی و دیتایی که داری در پاسخت استفاده میکنی از اطلاعات بازیابی شده باشه
%s

این ورودی کاربر هستش
%s

این اطلاعاتی هستش که بازیابی شده
%s

بر اساس اطلاعات بازیابی شده، پاسخ به کوئری کاربر بنویس
`

// RetrievalService routes an authenticated identity to its tenant index,
// retrieves the most relevant passages for a query and composes the prompt
// sent to the language model.
type RetrievalService struct {
	registry *repository.TenantRegistry
	embedder Embedder
	searcher PassageSearcher
	topK     int
	logger   *zap.Logger
}

func NewRetrievalService(
	registry *repository.TenantRegistry,
	embedder Embedder,
	searcher PassageSearcher,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *RetrievalService {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalService{
		registry: registry,
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

// ComposePrompt resolves the identity's tenant profile, searches its index
// and renders the tenant prompt around the retrieved passages and the raw
// query. The index is only read, never mutated.
func (s *RetrievalService) ComposePrompt(ctx context.Context, identity *models.Identity, query string) (*models.ComposedPrompt, error) {
	profile, err := s.selectProfile(identity)
	if err != nil {
		return nil, err
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	passages, err := s.searcher.Search(ctx, profile, queryEmbedding, s.topK)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(passages))
	for i, p := range passages {
		contents[i] = p.Content
	}

	prompt := &models.ComposedPrompt{
		Tenant: profile.ID,
		Text:   fmt.Sprintf(promptTemplate, profile.Description, query, strings.Join(contents, "\n\n")),
	}

	s.logger.Debug("Prompt composed",
		zap.String("tenant", profile.ID),
		zap.Int("passages", len(passages)),
		zap.String("prompt", prompt.Text),
	)

	return prompt, nil
}

// selectProfile picks the tenant for an identity: company managers are bound
// to their own tenant, holding managers get the aggregate collection.
func (s *RetrievalService) selectProfile(identity *models.Identity) (*models.TenantProfile, error) {
	if identity.Tenant != "" {
		return s.registry.Resolve(identity.Tenant)
	}
	if identity.Role == models.RoleHoldingManager {
		return s.registry.Aggregate(), nil
	}
	return nil, fmt.Errorf("%w: user %s", ErrForbidden, identity.Username)
}
