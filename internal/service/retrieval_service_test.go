package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"holding-rag/internal/models"
	"holding-rag/internal/repository"
	"holding-rag/pkg/config"

	"go.uber.org/zap"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vector != nil {
		return f.vector, nil
	}
	return []float32{1, 0, 0}, nil
}

type fakeSearcher struct {
	passages       []models.Passage
	err            error
	searchedTenant []string
	gotTopK        int
}

func (f *fakeSearcher) Search(ctx context.Context, profile *models.TenantProfile, queryEmbedding []float32, topK int) ([]models.Passage, error) {
	f.searchedTenant = append(f.searchedTenant, profile.ID)
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func newTestRetrieval(t *testing.T, searcher *fakeSearcher) *RetrievalService {
	t.Helper()
	registry, err := repository.NewTenantRegistry("", "vectordb", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	cfg := &config.RetrievalConfig{TopK: 3}
	return NewRetrievalService(registry, &fakeEmbedder{}, searcher, cfg, zap.NewNop())
}

func TestRetrievalService_CompanyManagerUsesOwnIndex(t *testing.T) {
	searcher := &fakeSearcher{passages: []models.Passage{{Content: "passage"}}}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "sina", Role: models.RoleCompanyManager, Tenant: "sina"}
	if _, err := svc.ComposePrompt(context.Background(), identity, "چه نوع وام‌هایی ارائه می‌دهید؟"); err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if len(searcher.searchedTenant) != 1 || searcher.searchedTenant[0] != "sina" {
		t.Errorf("expected only sina's index to be searched, got %v", searcher.searchedTenant)
	}
	if searcher.gotTopK != 3 {
		t.Errorf("expected topK 3, got %d", searcher.gotTopK)
	}
}

func TestRetrievalService_HoldingManagerUsesAggregate(t *testing.T) {
	searcher := &fakeSearcher{passages: []models.Passage{{Content: "passage"}}}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "modir", Role: models.RoleHoldingManager}
	prompt, err := svc.ComposePrompt(context.Background(), identity, "چه شرکت‌هایی را پوشش می‌دهید؟")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if len(searcher.searchedTenant) != 1 || searcher.searchedTenant[0] != models.AggregateTenantID {
		t.Errorf("expected aggregate index, got %v", searcher.searchedTenant)
	}

	// The aggregate prompt embeds every company description.
	for _, substr := range []string{"بانک سینا", "ایران تایر", "نفت بهران"} {
		if !strings.Contains(prompt.Text, substr) {
			t.Errorf("aggregate prompt missing %q", substr)
		}
	}
}

func TestRetrievalService_NoTenantNoAggregateForbidden(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "guest", Role: models.RoleCompanyManager}
	_, err := svc.ComposePrompt(context.Background(), identity, "سلام")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(searcher.searchedTenant) != 0 {
		t.Error("no index should be searched for a forbidden identity")
	}
}

func TestRetrievalService_UnknownTenant(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "ghost", Role: models.RoleCompanyManager, Tenant: "ghost-corp"}
	_, err := svc.ComposePrompt(context.Background(), identity, "سلام")
	if !errors.Is(err, repository.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestRetrievalService_PromptEmbedsQueryAndDescription(t *testing.T) {
	searcher := &fakeSearcher{passages: []models.Passage{{Content: "شرایط وام"}}}
	svc := newTestRetrieval(t, searcher)

	query := "چه نوع وام‌هایی ارائه می‌دهید؟"
	identity := &models.Identity{Username: "sina", Role: models.RoleCompanyManager, Tenant: "sina"}
	prompt, err := svc.ComposePrompt(context.Background(), identity, query)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if !strings.Contains(prompt.Text, query) {
		t.Error("prompt does not contain the raw query verbatim")
	}
	if !strings.Contains(prompt.Text, "بانک سینا") {
		t.Error("prompt does not contain the tenant description")
	}
	if !strings.Contains(prompt.Text, "شرایط وام") {
		t.Error("prompt does not contain the retrieved passage")
	}
	if prompt.Tenant != "sina" {
		t.Errorf("prompt tagged with tenant %q", prompt.Tenant)
	}
}

func TestRetrievalService_PassageOrderPreserved(t *testing.T) {
	searcher := &fakeSearcher{passages: []models.Passage{
		{Content: "first passage"},
		{Content: "second passage"},
		{Content: "third passage"},
	}}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "sina", Role: models.RoleCompanyManager, Tenant: "sina"}
	prompt, err := svc.ComposePrompt(context.Background(), identity, "query")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	first := strings.Index(prompt.Text, "first passage")
	second := strings.Index(prompt.Text, "second passage")
	third := strings.Index(prompt.Text, "third passage")
	if first < 0 || second < 0 || third < 0 {
		t.Fatal("passages missing from prompt")
	}
	if !(first < second && second < third) {
		t.Error("passages are not in similarity-rank order")
	}
}

func TestRetrievalService_CompositionIsDeterministic(t *testing.T) {
	searcher := &fakeSearcher{passages: []models.Passage{
		{Content: "alpha"},
		{Content: "beta"},
	}}
	svc := newTestRetrieval(t, searcher)

	identity := &models.Identity{Username: "behran", Role: models.RoleCompanyManager, Tenant: "behran"}
	first, err := svc.ComposePrompt(context.Background(), identity, "روغن موتور")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	second, err := svc.ComposePrompt(context.Background(), identity, "روغن موتور")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if first.Text != second.Text {
		t.Error("identical inputs produced different prompts")
	}
}

func TestRetrievalService_EmbeddingFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{}
	registry, err := repository.NewTenantRegistry("", "vectordb", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	embedErr := errors.New("embedding backend down")
	svc := NewRetrievalService(registry, &fakeEmbedder{err: embedErr}, searcher, &config.RetrievalConfig{TopK: 3}, zap.NewNop())

	identity := &models.Identity{Username: "sina", Role: models.RoleCompanyManager, Tenant: "sina"}
	_, err = svc.ComposePrompt(context.Background(), identity, "query")
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected embedding error to propagate, got %v", err)
	}
	if len(searcher.searchedTenant) != 0 {
		t.Error("search must not run when embedding fails")
	}
}
