package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"holding-rag/internal/models"

	"go.uber.org/zap"
)

// writeIndexFile builds a small pre-built index file the way the offline
// indexer lays it out: a passages table with JSON-encoded embeddings.
func writeIndexFile(t *testing.T, path string, passages []string, embeddings [][]float32) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open index file: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE passages (id INTEGER PRIMARY KEY, content TEXT NOT NULL, embedding BLOB NOT NULL)`); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	for i := range passages {
		blob, err := json.Marshal(embeddings[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(`INSERT INTO passages (id, content, embedding) VALUES (?, ?, ?)`, i+1, passages[i], blob); err != nil {
			t.Fatalf("insert passage: %v", err)
		}
	}
}

func testProfile(path string) *models.TenantProfile {
	return &models.TenantProfile{ID: "sina", Description: "desc", IndexPath: path}
}

func TestIndexRepository_SearchOrdersByRank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sina.db")
	writeIndexFile(t, path,
		[]string{"loans", "deposits", "cards"},
		[][]float32{{0.2, 0.8, 0}, {1, 0, 0}, {0.9, 0.1, 0}},
	)

	repo := NewIndexRepository(zap.NewNop())
	results, err := repo.Search(context.Background(), testProfile(path), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(results))
	}
	if results[0].Content != "deposits" || results[1].Content != "cards" || results[2].Content != "loans" {
		t.Errorf("unexpected ordering: %s, %s, %s", results[0].Content, results[1].Content, results[2].Content)
	}
	if results[0].Score < results[1].Score || results[1].Score < results[2].Score {
		t.Error("scores are not descending")
	}
}

func TestIndexRepository_FewerPassagesThanK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sina.db")
	writeIndexFile(t, path, []string{"only one"}, [][]float32{{1, 0}})

	repo := NewIndexRepository(zap.NewNop())
	results, err := repo.Search(context.Background(), testProfile(path), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 passage, got %d", len(results))
	}
}

func TestIndexRepository_MissingFile(t *testing.T) {
	repo := NewIndexRepository(zap.NewNop())
	_, err := repo.Search(context.Background(), testProfile(filepath.Join(t.TempDir(), "missing.db")), []float32{1}, 3)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestIndexRepository_CorruptEmbedding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sina.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE passages (id INTEGER PRIMARY KEY, content TEXT NOT NULL, embedding BLOB NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO passages (id, content, embedding) VALUES (1, 'x', 'not-json')`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	repo := NewIndexRepository(zap.NewNop())
	_, err = repo.Search(context.Background(), testProfile(path), []float32{1}, 3)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestIndexRepository_CachesLoadedIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sina.db")
	writeIndexFile(t, path, []string{"cached"}, [][]float32{{1, 0}})

	repo := NewIndexRepository(zap.NewNop())
	profile := testProfile(path)

	if _, err := repo.Search(context.Background(), profile, []float32{1, 0}, 1); err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	// Removing the file must not matter once the index is cached.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	results, err := repo.Search(context.Background(), profile, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("cached search failed: %v", err)
	}
	if len(results) != 1 || results[0].Content != "cached" {
		t.Error("cached index did not serve the second search")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %f", got)
	}
}
