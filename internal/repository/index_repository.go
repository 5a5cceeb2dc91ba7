package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"holding-rag/internal/models"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

var ErrIndexUnavailable = errors.New("index unavailable")

// tenantIndex is one pre-built index loaded fully into memory. Immutable
// after load, so concurrent searches need no locking.
type tenantIndex struct {
	passages   []models.Passage
	embeddings [][]float32
}

// IndexRepository opens pre-built per-tenant vector indexes (read-only SQLite
// files with a passages table) and serves similarity searches over them.
// Each index is loaded at most once per process and cached.
type IndexRepository struct {
	mu      sync.Mutex
	indexes map[string]*tenantIndex
	logger  *zap.Logger
}

func NewIndexRepository(logger *zap.Logger) *IndexRepository {
	return &IndexRepository{
		indexes: make(map[string]*tenantIndex),
		logger:  logger,
	}
}

// Search returns up to topK passages from the tenant's index, most similar
// first. Fewer passages are returned when the index holds fewer.
func (r *IndexRepository) Search(ctx context.Context, profile *models.TenantProfile, queryEmbedding []float32, topK int) ([]models.Passage, error) {
	idx, err := r.load(ctx, profile)
	if err != nil {
		return nil, err
	}

	scored := make([]models.Passage, len(idx.passages))
	for i := range idx.passages {
		scored[i] = idx.passages[i]
		scored[i].Score = cosineSimilarity(queryEmbedding, idx.embeddings[i])
	}

	// Stable sort keeps tie ordering deterministic across identical queries.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// load returns the cached index for a tenant, reading it from disk on first
// use. The mutex gives at-most-one-load-per-tenant semantics under
// concurrent requests.
func (r *IndexRepository) load(ctx context.Context, profile *models.TenantProfile) (*tenantIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[profile.ID]; ok {
		return idx, nil
	}

	idx, err := readIndex(ctx, profile.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant %s: %v", ErrIndexUnavailable, profile.ID, err)
	}

	r.indexes[profile.ID] = idx
	r.logger.Info("Tenant index loaded",
		zap.String("tenant", profile.ID),
		zap.String("path", profile.IndexPath),
		zap.Int("passages", len(idx.passages)),
	)

	return idx, nil
}

func readIndex(ctx context.Context, path string) (*tenantIndex, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT content, embedding FROM passages ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idx := &tenantIndex{}
	for rows.Next() {
		var content string
		var embeddingJSON []byte
		if err := rows.Scan(&content, &embeddingJSON); err != nil {
			return nil, err
		}

		var embedding []float32
		if err := json.Unmarshal(embeddingJSON, &embedding); err != nil {
			return nil, fmt.Errorf("corrupt embedding: %w", err)
		}

		idx.passages = append(idx.passages, models.Passage{Content: content})
		idx.embeddings = append(idx.embeddings, embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return idx, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
