package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ortegadev/autoescuela-api/internal/models"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
)

type mockScheduleRepo struct {
	weeks   map[int64]models.WeeklySchedule
	nextID  int64
	deleted []int64
}

func (m *mockScheduleRepo) Create(ctx context.Context, week *models.WeeklySchedule) error {
	if m.weeks == nil {
		m.weeks = make(map[int64]models.WeeklySchedule)
	}
	m.nextID++
	week.ID = m.nextID
	m.weeks[week.ID] = *week
	return nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id int64) (*models.WeeklySchedule, error) {
	if w, ok := m.weeks[id]; ok {
		return &w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) List(ctx context.Context, onlyActive bool) ([]models.WeeklySchedule, error) {
	var list []models.WeeklySchedule
	for _, w := range m.weeks {
		if onlyActive && !w.IsActive {
			continue
		}
		list = append(list, w)
	}
	return list, nil
}

func (m *mockScheduleRepo) ToggleActive(ctx context.Context, id int64) (*models.WeeklySchedule, error) {
	w, ok := m.weeks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	w.IsActive = !w.IsActive
	m.weeks[id] = w
	return &w, nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.weeks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.weeks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassLinker struct {
	assigned   map[int64]int64
	candidates []models.ClassSessionDetail
}

func (m *mockClassLinker) AssignToSchedule(ctx context.Context, classIDs []int64, scheduleID int64) (int64, error) {
	if m.assigned == nil {
		m.assigned = make(map[int64]int64)
	}
	for _, id := range classIDs {
		m.assigned[id] = scheduleID
	}
	return int64(len(classIDs)), nil
}

func (m *mockClassLinker) Unassign(ctx context.Context, classID int64) error {
	if _, ok := m.assigned[classID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assigned, classID)
	return nil
}

func (m *mockClassLinker) ListCandidates(ctx context.Context, start, end time.Time) ([]models.ClassSessionDetail, error) {
	return m.candidates, nil
}

func newScheduleServiceForTest(repo *mockScheduleRepo, classes *mockClassLinker) *ScheduleService {
	return NewScheduleService(repo, classes, validator.New(), zap.NewNop(), nil)
}

func validWeekRequest() CreateWeekRequest {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	return CreateWeekRequest{Name: "Week 37", StartDate: start, EndDate: start.AddDate(0, 0, 6)}
}

func TestScheduleServiceCreateWeek(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleServiceForTest(repo, &mockClassLinker{})

	week, err := svc.CreateWeek(context.Background(), validWeekRequest())
	require.NoError(t, err)
	assert.NotZero(t, week.ID)
	assert.False(t, week.IsActive)
}

func TestScheduleServiceCreateWeekInvertedDates(t *testing.T) {
	svc := newScheduleServiceForTest(&mockScheduleRepo{}, &mockClassLinker{})

	req := validWeekRequest()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	_, err := svc.CreateWeek(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceToggleActive(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleServiceForTest(repo, &mockClassLinker{})

	week, err := svc.CreateWeek(context.Background(), validWeekRequest())
	require.NoError(t, err)

	toggled, err := svc.ToggleActive(context.Background(), week.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	toggled, err = svc.ToggleActive(context.Background(), week.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.ToggleActive(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCandidates(t *testing.T) {
	repo := &mockScheduleRepo{}
	linker := &mockClassLinker{candidates: []models.ClassSessionDetail{
		{ClassSession: models.ClassSession{ID: 1}},
		{ClassSession: models.ClassSession{ID: 2}},
	}}
	svc := newScheduleServiceForTest(repo, linker)

	week, err := svc.CreateWeek(context.Background(), validWeekRequest())
	require.NoError(t, err)

	candidates, err := svc.Candidates(context.Background(), week.ID)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	_, err = svc.Candidates(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceAssignAndUnassign(t *testing.T) {
	repo := &mockScheduleRepo{}
	linker := &mockClassLinker{}
	svc := newScheduleServiceForTest(repo, linker)

	week, err := svc.CreateWeek(context.Background(), validWeekRequest())
	require.NoError(t, err)

	assigned, err := svc.Assign(context.Background(), week.ID, AssignClassesRequest{ClassIDs: []int64{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), assigned)
	assert.Equal(t, week.ID, linker.assigned[2])

	require.NoError(t, svc.Unassign(context.Background(), 2))
	assert.NotContains(t, linker.assigned, int64(2))

	err = svc.Unassign(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceAssignMissingWeek(t *testing.T) {
	svc := newScheduleServiceForTest(&mockScheduleRepo{}, &mockClassLinker{})

	_, err := svc.Assign(context.Background(), 77, AssignClassesRequest{ClassIDs: []int64{1}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDelete(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleServiceForTest(repo, &mockClassLinker{})

	week, err := svc.CreateWeek(context.Background(), validWeekRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), week.ID))
	assert.Contains(t, repo.deleted, week.ID)

	err = svc.Delete(context.Background(), week.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
