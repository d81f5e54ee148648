package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type countingReportRepo struct {
	mu             sync.Mutex
	report         *entities.Report
	detailCalls    int
	byVaersCalls   int
	listCalls      int
	updateCalls    int
	deleteCalls    int
	deletedReports []string
}

func (r *countingReportRepo) Create(ctx context.Context, report *entities.Report) error {
	return nil
}

func (r *countingReportRepo) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return r.report, nil
}

func (r *countingReportRepo) GetByVaersID(ctx context.Context, vaersID string) (*entities.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byVaersCalls++
	return r.report, nil
}

func (r *countingReportRepo) GetDetail(ctx context.Context, id string) (*entities.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailCalls++
	return r.report, nil
}

func (r *countingReportRepo) Update(ctx context.Context, report *entities.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	return nil
}

func (r *countingReportRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	r.deletedReports = append(r.deletedReports, id)
	return nil
}

func (r *countingReportRepo) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return []*entities.Report{r.report}, 1, nil
}

func (r *countingReportRepo) detailCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detailCalls
}

func (r *countingReportRepo) byVaersCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byVaersCalls
}

func cachedTestReport() *entities.Report {
	return &entities.Report{
		ID:          "rep-1",
		VaersID:     "1234567",
		SymptomText: "Fever and fatigue",
		Symptoms:    []entities.Symptom{{SymptomName: "Pyrexia"}},
	}
}

func TestCachedReportAdapterGetDetailServedFromCache(t *testing.T) {
	repo := &countingReportRepo{report: cachedTestReport()}
	cache := newMemoryCache()
	adapter := NewCachedReportAdapter(repo, cache)

	first, err := adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.detailCount())

	// The cache write happens off the request path
	require.Eventually(t, func() bool {
		return cache.has(reportDetailCacheKey("rep-1"))
	}, time.Second, 5*time.Millisecond)

	second, err := adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.detailCount(), "second read should not hit the database")
	assert.Equal(t, first.VaersID, second.VaersID)
	assert.Equal(t, first.Symptoms, second.Symptoms)
}

func TestCachedReportAdapterGetByVaersIDServedFromCache(t *testing.T) {
	repo := &countingReportRepo{report: cachedTestReport()}
	cache := newMemoryCache()
	adapter := NewCachedReportAdapter(repo, cache)

	_, err := adapter.GetByVaersID(context.Background(), "1234567")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return cache.has(reportByVaersCacheKey("1234567"))
	}, time.Second, 5*time.Millisecond)

	_, err = adapter.GetByVaersID(context.Background(), "1234567")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.byVaersCount())
}

func TestCachedReportAdapterUpdateInvalidates(t *testing.T) {
	report := cachedTestReport()
	repo := &countingReportRepo{report: report}
	cache := newMemoryCache()
	adapter := NewCachedReportAdapter(repo, cache)

	_, err := adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return cache.has(reportDetailCacheKey("rep-1"))
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, adapter.Update(context.Background(), report))

	require.Eventually(t, func() bool {
		return !cache.has(reportDetailCacheKey("rep-1"))
	}, time.Second, 5*time.Millisecond)

	_, err = adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.detailCount(), "post-update read should go back to the database")
}

func TestCachedReportAdapterDeleteInvalidatesBothKeys(t *testing.T) {
	report := cachedTestReport()
	repo := &countingReportRepo{report: report}
	cache := newMemoryCache()
	adapter := NewCachedReportAdapter(repo, cache)

	_, err := adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)
	_, err = adapter.GetByVaersID(context.Background(), "1234567")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return cache.has(reportDetailCacheKey("rep-1")) && cache.has(reportByVaersCacheKey("1234567"))
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, adapter.Delete(context.Background(), "rep-1"))

	require.Eventually(t, func() bool {
		return !cache.has(reportDetailCacheKey("rep-1")) && !cache.has(reportByVaersCacheKey("1234567"))
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"rep-1"}, repo.deletedReports)
}

func TestCachedReportAdapterListPassesThrough(t *testing.T) {
	repo := &countingReportRepo{report: cachedTestReport()}
	cache := newMemoryCache()
	adapter := NewCachedReportAdapter(repo, cache)

	for i := 0; i < 2; i++ {
		reports, total, err := adapter.List(context.Background(), repositories.ReportFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, reports, 1)
	}
	assert.Equal(t, 2, repo.listCalls)
}
