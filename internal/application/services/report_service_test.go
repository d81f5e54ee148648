package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

type recordingRepo struct {
	fakeReportRepo
	created   []*entities.Report
	updated   []*entities.Report
	deleted   []string
	listed    []repositories.ReportFilter
	createErr error
	listPage  []*entities.Report
	listTotal int
}

func (r *recordingRepo) Create(ctx context.Context, report *entities.Report) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, report)
	return nil
}

func (r *recordingRepo) Update(ctx context.Context, report *entities.Report) error {
	r.updated = append(r.updated, report)
	return nil
}

func (r *recordingRepo) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingRepo) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	for vaersID, report := range r.byVaersID {
		if report.ID == id {
			return &entities.Report{ID: id, VaersID: vaersID}, nil
		}
	}
	return nil, apperrors.NewNotFoundError("report not found")
}

func (r *recordingRepo) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, int, error) {
	r.listed = append(r.listed, filter)
	return r.listPage, r.listTotal, nil
}

type recordingEventBus struct {
	published []*entities.ReportEvent
	channels  []string
	err       error
}

func (b *recordingEventBus) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	if b.err != nil {
		return b.err
	}
	b.channels = append(b.channels, channel)
	b.published = append(b.published, event)
	return nil
}

func (b *recordingEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	return nil, errors.New("not implemented")
}

func (b *recordingEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }
func (b *recordingEventBus) Close() error                                          { return nil }

type recordingIndexer struct {
	indexed   []string
	deleted   []string
	indexErr  error
	deleteErr error
}

func (i *recordingIndexer) IndexSymptom(ctx context.Context, vaersID string, symptom *entities.Symptom) error {
	if i.indexErr != nil {
		return i.indexErr
	}
	i.indexed = append(i.indexed, vaersID+"/"+symptom.SymptomName)
	return nil
}

func (i *recordingIndexer) DeleteByReport(ctx context.Context, vaersID string) error {
	if i.deleteErr != nil {
		return i.deleteErr
	}
	i.deleted = append(i.deleted, vaersID)
	return nil
}

func validReport() *entities.Report {
	return &entities.Report{
		ID:          "rep-1",
		VaersID:     "1234567",
		SymptomText: "Fever after vaccination",
		Symptoms: []entities.Symptom{
			{SymptomName: "Pyrexia"},
			{SymptomName: "Fatigue"},
		},
	}
}

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("persists, indexes and publishes", func(t *testing.T) {
		repo := &recordingRepo{}
		bus := &recordingEventBus{}
		indexer := &recordingIndexer{}
		service := NewReportService(repo, indexer, bus)

		err := service.Create(ctx, validReport())
		require.NoError(t, err)

		require.Len(t, repo.created, 1)
		assert.Equal(t, []string{"1234567/Pyrexia", "1234567/Fatigue"}, indexer.indexed)
		require.Len(t, bus.published, 1)
		assert.Equal(t, providers.EventChannelReportUpdates, bus.channels[0])
		assert.Equal(t, entities.ReportEventTypeCreated, bus.published[0].EventType)
		assert.Equal(t, "1234567", bus.published[0].VaersID)
	})

	t.Run("rejects missing vaersId", func(t *testing.T) {
		repo := &recordingRepo{}
		service := NewReportService(repo, nil, nil)

		report := validReport()
		report.VaersID = ""
		err := service.Create(ctx, report)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		assert.Empty(t, repo.created)
	})

	t.Run("rejects missing symptom text", func(t *testing.T) {
		service := NewReportService(&recordingRepo{}, nil, nil)

		report := validReport()
		report.SymptomText = ""
		err := service.Create(ctx, report)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("surfaces repository errors without publishing", func(t *testing.T) {
		repo := &recordingRepo{createErr: errors.New("db down")}
		bus := &recordingEventBus{}
		service := NewReportService(repo, nil, bus)

		err := service.Create(ctx, validReport())
		require.Error(t, err)
		assert.Empty(t, bus.published)
	})

	t.Run("indexing failure does not fail the create", func(t *testing.T) {
		repo := &recordingRepo{}
		bus := &recordingEventBus{}
		indexer := &recordingIndexer{indexErr: errors.New("typesense down")}
		service := NewReportService(repo, indexer, bus)

		err := service.Create(ctx, validReport())
		require.NoError(t, err)
		require.Len(t, repo.created, 1)
		require.Len(t, bus.published, 1)
	})

	t.Run("publish failure does not fail the create", func(t *testing.T) {
		repo := &recordingRepo{}
		bus := &recordingEventBus{err: errors.New("redis down")}
		service := NewReportService(repo, nil, bus)

		err := service.Create(ctx, validReport())
		require.NoError(t, err)
	})
}

func TestReportService_Update(t *testing.T) {
	t.Run("updates and publishes", func(t *testing.T) {
		repo := &recordingRepo{}
		bus := &recordingEventBus{}
		service := NewReportService(repo, nil, bus)

		err := service.Update(context.Background(), validReport())
		require.NoError(t, err)

		require.Len(t, repo.updated, 1)
		require.Len(t, bus.published, 1)
		assert.Equal(t, entities.ReportEventTypeUpdated, bus.published[0].EventType)
	})
}

func TestReportService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes, de-indexes and publishes", func(t *testing.T) {
		repo := &recordingRepo{
			fakeReportRepo: fakeReportRepo{
				byVaersID: map[string]*entities.Report{
					"1234567": {ID: "rep-1", VaersID: "1234567"},
				},
			},
		}
		bus := &recordingEventBus{}
		indexer := &recordingIndexer{}
		service := NewReportService(repo, indexer, bus)

		err := service.Delete(ctx, "rep-1")
		require.NoError(t, err)

		assert.Equal(t, []string{"rep-1"}, repo.deleted)
		assert.Equal(t, []string{"1234567"}, indexer.deleted)
		require.Len(t, bus.published, 1)
		assert.Equal(t, entities.ReportEventTypeDeleted, bus.published[0].EventType)
		assert.Equal(t, "1234567", bus.published[0].VaersID)
	})

	t.Run("unknown report is not found", func(t *testing.T) {
		repo := &recordingRepo{}
		service := NewReportService(repo, nil, nil)

		err := service.Delete(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
		assert.Empty(t, repo.deleted)
	})
}

func TestReportService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("applies pagination defaults and caps", func(t *testing.T) {
		repo := &recordingRepo{listTotal: 250}
		service := NewReportService(repo, nil, nil)

		_, err := service.List(ctx, repositories.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 20, repo.listed[0].Limit)

		_, err = service.List(ctx, repositories.ReportFilter{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, 100, repo.listed[1].Limit)

		_, err = service.List(ctx, repositories.ReportFilter{Limit: 10, Offset: -5})
		require.NoError(t, err)
		assert.Equal(t, 0, repo.listed[2].Offset)
	})

	t.Run("reports hasMore from total", func(t *testing.T) {
		repo := &recordingRepo{
			listPage:  []*entities.Report{{ID: "a"}, {ID: "b"}},
			listTotal: 5,
		}
		service := NewReportService(repo, nil, nil)

		page, err := service.List(ctx, repositories.ReportFilter{Limit: 2, Offset: 0})
		require.NoError(t, err)

		assert.Equal(t, 5, page.Total)
		assert.True(t, page.HasMore)

		repo.listPage = []*entities.Report{{ID: "e"}}
		page, err = service.List(ctx, repositories.ReportFilter{Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
	})
}
