package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"holding-rag/internal/models"

	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *TenantRegistry {
	t.Helper()
	registry, err := NewTenantRegistry("", "vectordb", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return registry
}

func TestTenantRegistry_ResolveKnownTenants(t *testing.T) {
	registry := newTestRegistry(t)

	for _, id := range []string{"sina", "irantire", "behran"} {
		profile, err := registry.Resolve(id)
		if err != nil {
			t.Fatalf("resolve %s: %v", id, err)
		}
		if profile.IndexPath == "" {
			t.Errorf("tenant %s has empty index path", id)
		}
		if profile.Description == "" {
			t.Errorf("tenant %s has empty description", id)
		}
	}
}

func TestTenantRegistry_ResolveIsStable(t *testing.T) {
	registry := newTestRegistry(t)

	first, _ := registry.Resolve("sina")
	second, _ := registry.Resolve("sina")
	if first != second {
		t.Error("resolve returned different profiles for the same tenant")
	}
}

func TestTenantRegistry_UnknownTenant(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Resolve("nobody")
	if !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestTenantRegistry_AggregateSpansAllTenants(t *testing.T) {
	registry := newTestRegistry(t)

	aggregate := registry.Aggregate()
	if aggregate.ID != models.AggregateTenantID {
		t.Fatalf("unexpected aggregate id %q", aggregate.ID)
	}

	for _, profile := range registry.Tenants() {
		if !strings.Contains(aggregate.Description, profile.Description) {
			t.Errorf("aggregate description missing tenant %s description", profile.ID)
		}
	}
}

func TestTenantRegistry_AggregateResolvable(t *testing.T) {
	registry := newTestRegistry(t)

	profile, err := registry.Resolve(models.AggregateTenantID)
	if err != nil {
		t.Fatalf("resolve aggregate: %v", err)
	}
	if profile != registry.Aggregate() {
		t.Error("resolved aggregate differs from Aggregate()")
	}
}

func TestTenantRegistry_LoadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	content := `tenants:
  - id: acme
    description: Acme Corp knowledge
  - id: globex
    description: Globex knowledge
    index_path: /srv/indexes/globex.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	registry, err := NewTenantRegistry(path, "indexdir", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to load registry from file: %v", err)
	}

	acme, err := registry.Resolve("acme")
	if err != nil {
		t.Fatalf("resolve acme: %v", err)
	}
	if acme.IndexPath != filepath.Join("indexdir", "acme.db") {
		t.Errorf("expected default index path, got %q", acme.IndexPath)
	}

	globex, err := registry.Resolve("globex")
	if err != nil {
		t.Fatalf("resolve globex: %v", err)
	}
	if globex.IndexPath != "/srv/indexes/globex.db" {
		t.Errorf("explicit index path not kept: %q", globex.IndexPath)
	}

	if _, err := registry.Resolve("sina"); !errors.Is(err, ErrUnknownTenant) {
		t.Error("built-in defaults should not apply when a tenants file is present")
	}
}

func TestTenantRegistry_RejectsReservedID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	content := "tenants:\n  - id: companies\n    description: reserved\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewTenantRegistry(path, "indexdir", zap.NewNop()); err == nil {
		t.Error("expected error for reserved tenant id")
	}
}
