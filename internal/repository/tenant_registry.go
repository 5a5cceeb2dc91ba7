package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"holding-rag/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTenant = errors.New("unknown tenant")

// Built-in profiles for the holding's companies, used when no tenants file is
// present. Descriptions are injected verbatim into composed prompts.
var defaultProfiles = []models.TenantProfile{
	{
		ID:          "sina",
		Description: "بانک سینا یک بانک خصوصی ایرانی است که خدمات مالی و بانکی مانند سپرده‌گذاری، اعطای وام و بانکداری الکترونیک ارائه می‌دهد.",
	},
	{
		ID:          "irantire",
		Description: "شرکت ایران تایر یک تولیدکننده ایرانی انواع لاستیک‌های سبک و سنگین (سواری، وانت، باری، کشاورزی و راه‌سازی) است",
	},
	{
		ID:          "behran",
		Description: "شرکت نفت بهران یکی از بزرگ‌ترین تولیدکنندگان روغن‌های موتور و صنعتی در ایران است که در زمینه تولید و عرضه روانکارها، گریس و فرآورده‌های نفتی فعالیت می‌کند.",
	},
}

// aggregatePreamble steers holding-level answers towards naming only the
// companies the aggregate collection actually covers.
const aggregatePreamble = "برای مثال وقتی کاربر میگه در مورد چه شرکت هایی اطلاعات داری باید فقط اسم شرکت های بانک سینا، شرکت ایران تایر و شرکت نفت بهران رو بگی"

type tenantsFile struct {
	Tenants []models.TenantProfile `yaml:"tenants"`
}

// TenantRegistry maps tenant identifiers to their profiles and index
// locations. Read-only after construction, safe for concurrent use.
type TenantRegistry struct {
	profiles  map[string]*models.TenantProfile
	ordered   []*models.TenantProfile
	aggregate *models.TenantProfile
	logger    *zap.Logger
}

// NewTenantRegistry loads tenant profiles from a yaml file, falling back to
// the built-in set when the file does not exist. Index paths default to
// <indexDir>/<tenant_id>.db; a synthetic aggregate profile spanning all
// tenants is always added.
func NewTenantRegistry(tenantsFilePath, indexDir string, logger *zap.Logger) (*TenantRegistry, error) {
	profiles, err := loadProfiles(tenantsFilePath)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no tenant profiles configured")
	}

	r := &TenantRegistry{
		profiles: make(map[string]*models.TenantProfile, len(profiles)+1),
		logger:   logger,
	}

	var descriptions []string
	for i := range profiles {
		p := profiles[i]
		if p.ID == "" {
			return nil, fmt.Errorf("tenant profile %d has no id", i)
		}
		if p.ID == models.AggregateTenantID {
			return nil, fmt.Errorf("tenant id %q is reserved", p.ID)
		}
		if p.IndexPath == "" {
			p.IndexPath = filepath.Join(indexDir, p.ID+".db")
		}
		if _, exists := r.profiles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate tenant id %q", p.ID)
		}
		r.profiles[p.ID] = &p
		r.ordered = append(r.ordered, &p)
		descriptions = append(descriptions, p.Description)
	}

	r.aggregate = &models.TenantProfile{
		ID:          models.AggregateTenantID,
		Description: aggregatePreamble + "\n" + strings.Join(descriptions, "\n"),
		IndexPath:   filepath.Join(indexDir, models.AggregateTenantID+".db"),
	}
	r.profiles[r.aggregate.ID] = r.aggregate

	logger.Info("Tenant registry initialized", zap.Int("tenants", len(r.ordered)))

	return r, nil
}

// Resolve returns the profile for a tenant identifier.
func (r *TenantRegistry) Resolve(tenantID string) (*models.TenantProfile, error) {
	profile, ok := r.profiles[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}
	return profile, nil
}

// Aggregate returns the synthetic profile spanning all tenants.
func (r *TenantRegistry) Aggregate() *models.TenantProfile {
	return r.aggregate
}

// Tenants returns the configured tenant profiles in declaration order,
// excluding the aggregate.
func (r *TenantRegistry) Tenants() []*models.TenantProfile {
	return r.ordered
}

func loadProfiles(path string) ([]models.TenantProfile, error) {
	if path == "" {
		return defaultProfiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultProfiles, nil
		}
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var file tenantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file: %w", err)
	}

	return file.Tenants, nil
}
