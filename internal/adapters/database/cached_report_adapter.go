package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
)

// CachedReportAdapter wraps a ReportRepository with read-through caching of
// the detail and by-VAERS-ID lookups the analysis pipeline hits repeatedly.
// List results are not cached; the listing page tolerates database latency.
type CachedReportAdapter struct {
	adapter repositories.ReportRepository
	cache   providers.CacheProvider
}

// NewCachedReportAdapter creates a new cached report adapter
func NewCachedReportAdapter(adapter repositories.ReportRepository, cache providers.CacheProvider) repositories.ReportRepository {
	return &CachedReportAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	reportDetailTTL  = 300
	reportByVaersTTL = 300
)

func reportDetailCacheKey(id string) string {
	return fmt.Sprintf("report:detail:%s", id)
}

func reportByVaersCacheKey(vaersID string) string {
	return fmt.Sprintf("report:vaers:%s", vaersID)
}

// Create creates a report; nothing to invalidate since per-report keys do not
// exist yet
func (a *CachedReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	return a.adapter.Create(ctx, report)
}

// GetByID passes through uncached
func (a *CachedReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return a.adapter.GetByID(ctx, id)
}

// GetByVaersID retrieves a report by VAERS ID with caching
func (a *CachedReportAdapter) GetByVaersID(ctx context.Context, vaersID string) (*entities.Report, error) {
	cacheKey := reportByVaersCacheKey(vaersID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var report entities.Report
		if err := json.Unmarshal(cached, &report); err == nil {
			return &report, nil
		}
		log.Printf("Failed to unmarshal cached report %s: %v", vaersID, err)
	}

	report, err := a.adapter.GetByVaersID(ctx, vaersID)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(report); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, reportByVaersTTL); err != nil {
				log.Printf("Failed to cache report %s: %v", vaersID, err)
			}
		}
	}()

	return report, nil
}

// GetDetail retrieves a report with vaccines and symptoms, with caching
func (a *CachedReportAdapter) GetDetail(ctx context.Context, id string) (*entities.Report, error) {
	cacheKey := reportDetailCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var report entities.Report
		if err := json.Unmarshal(cached, &report); err == nil {
			return &report, nil
		}
		log.Printf("Failed to unmarshal cached report detail %s: %v", id, err)
	}

	report, err := a.adapter.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(report); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, reportDetailTTL); err != nil {
				log.Printf("Failed to cache report detail %s: %v", id, err)
			}
		}
	}()

	return report, nil
}

// Update updates a report and invalidates its cache entries
func (a *CachedReportAdapter) Update(ctx context.Context, report *entities.Report) error {
	if err := a.adapter.Update(ctx, report); err != nil {
		return err
	}

	a.invalidate(report.ID, report.VaersID)
	return nil
}

// Delete deletes a report and invalidates its cache entries
func (a *CachedReportAdapter) Delete(ctx context.Context, id string) error {
	// Resolve the VAERS ID before the row disappears
	vaersID := ""
	if report, err := a.adapter.GetByID(ctx, id); err == nil {
		vaersID = report.VaersID
	}

	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}

	a.invalidate(id, vaersID)
	return nil
}

// List passes through uncached
func (a *CachedReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, int, error) {
	return a.adapter.List(ctx, filter)
}

func (a *CachedReportAdapter) invalidate(id, vaersID string) {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, reportDetailCacheKey(id)); err != nil {
			log.Printf("Failed to invalidate report detail cache %s: %v", id, err)
		}
		if vaersID != "" {
			if err := a.cache.Delete(bgCtx, reportByVaersCacheKey(vaersID)); err != nil {
				log.Printf("Failed to invalidate report cache %s: %v", vaersID, err)
			}
		}
	}()
}
