package service

import (
	"bytes"
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

type mockClassRepo struct {
	classes map[int64]models.ClassSession
	roster  map[int64][]models.RosterEntry
	nextID  int64
	deleted []int64
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.ClassSession) error {
	if m.classes == nil {
		m.classes = make(map[int64]models.ClassSession)
	}
	m.nextID++
	class.ID = m.nextID
	class.AvailableCapacity = class.MaxCapacity
	class.Status = models.ClassStatusOpen
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id int64) (*models.ClassSession, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id int64) (*models.ClassSessionDetail, error) {
	if c, ok := m.classes[id]; ok {
		return &models.ClassSessionDetail{ClassSession: c, SubjectName: "Road Rules", ProfessorName: "J. Vega"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSessionDetail, int, error) {
	var list []models.ClassSessionDetail
	for _, c := range m.classes {
		list = append(list, models.ClassSessionDetail{ClassSession: c})
	}
	return list, len(list), nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.classes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.classes, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockClassRepo) Roster(ctx context.Context, classID int64) ([]models.RosterEntry, error) {
	return m.roster[classID], nil
}

type mockSubjectReader struct{}

func (m *mockSubjectReader) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	if id == 404 {
		return nil, sql.ErrNoRows
	}
	return &models.Subject{ID: id, Name: "Road Rules"}, nil
}

type mockProfessorReader struct{}

func (m *mockProfessorReader) FindProfessorByID(ctx context.Context, id int64) (*models.ProfessorDetail, error) {
	if id == 404 {
		return nil, sql.ErrNoRows
	}
	return &models.ProfessorDetail{Professor: models.Professor{ID: id}}, nil
}

type mockWeekReader struct{}

func (m *mockWeekReader) FindByID(ctx context.Context, id int64) (*models.WeeklySchedule, error) {
	if id == 404 {
		return nil, sql.ErrNoRows
	}
	return &models.WeeklySchedule{ID: id, IsActive: true}, nil
}

func newClassServiceForTest(repo *mockClassRepo) *ClassService {
	return NewClassService(repo, &mockSubjectReader{}, &mockProfessorReader{}, &mockWeekReader{}, validator.New(), zap.NewNop(), nil)
}

func validCreateClassRequest() CreateClassRequest {
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	return CreateClassRequest{
		SubjectID:   1,
		ProfessorID: 2,
		ClassDate:   date,
		StartTime:   date.Add(9 * time.Hour),
		EndTime:     date.Add(11 * time.Hour),
		MaxCapacity: 15,
	}
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassServiceForTest(repo)

	detail, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusOpen, detail.Status)
	assert.Equal(t, 15, detail.MaxCapacity)
	assert.Equal(t, 15, detail.AvailableCapacity)
}

func TestClassServiceCreateMissingSchedule(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	req := validCreateClassRequest()
	missing := int64(404)
	req.ScheduleID = &missing
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceCreateWithSchedule(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassServiceForTest(repo)

	req := validCreateClassRequest()
	week := int64(3)
	req.ScheduleID = &week
	detail, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, detail.ScheduleID)
	assert.Equal(t, week, *detail.ScheduleID)
}

func TestClassServiceCreateInvalidTimes(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	req := validCreateClassRequest()
	req.EndTime = req.StartTime
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceCreateMissingSubject(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	req := validCreateClassRequest()
	req.SubjectID = 404
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceCreateMissingProfessor(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	req := validCreateClassRequest()
	req.ProfessorID = 404
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceGetNotFound(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDelete(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassServiceForTest(repo)

	detail, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), detail.ID))
	assert.Contains(t, repo.deleted, detail.ID)

	err = svc.Delete(context.Background(), detail.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceRosterPDF(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassServiceForTest(repo)

	detail, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	attended := true
	repo.roster = map[int64][]models.RosterEntry{
		detail.ID: {
			{ReservationID: 1, StudentName: "Ana Ruiz", Document: "11222333", Attended: &attended},
			{ReservationID: 2, StudentName: "Luis Mora", Document: "44555666"},
		},
	}

	payload, filename, err := svc.RosterPDF(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
	assert.Contains(t, filename, "roster-")
}

func TestClassServiceRosterCSV(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassServiceForTest(repo)

	detail, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	attended := false
	repo.roster = map[int64][]models.RosterEntry{
		detail.ID: {
			{ReservationID: 1, StudentName: "Ana Ruiz", Document: "11222333", Attended: &attended},
		},
	}

	payload, filename, err := svc.RosterCSV(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Student,Document,Attended")
	assert.Contains(t, string(payload), "Ana Ruiz,11222333,no")
	assert.Contains(t, filename, ".csv")
}

func TestClassServiceRosterPDFMissingClass(t *testing.T) {
	svc := newClassServiceForTest(&mockClassRepo{})

	_, _, err := svc.RosterPDF(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
