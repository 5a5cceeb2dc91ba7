package models

// AggregateTenantID identifies the synthetic profile whose index spans
// every company's documents.
const AggregateTenantID = "companies"

// TenantProfile describes one company's document collection: a free-text
// description injected into prompts and the on-disk location of its
// pre-built vector index. Loaded at startup, immutable afterwards.
type TenantProfile struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	IndexPath   string `yaml:"index_path"`
}
