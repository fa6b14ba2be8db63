package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

func openEvent(password string) *entity.Event {
	now := time.Now()
	return &entity.Event{
		ID:                 4,
		Title:              "Еженедельный контест",
		StartTime:          now.Add(-time.Hour),
		EndTime:            now.Add(time.Hour),
		OpenForAttendance:  true,
		AttendancePassword: password,
	}
}

func TestMarkAttendance(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		eventRepo := new(MockEventRepo)
		attendanceRepo := new(MockAttendanceRepo)

		eventRepo.On("GetByID", uint(4)).Return(openEvent("quack"), nil)
		attendanceRepo.On("Exists", uint(1), uint(4)).Return(false, nil)
		attendanceRepo.On("Create", mock.MatchedBy(func(a *entity.Attendance) bool {
			return a.UserID == 1 && a.EventID == 4
		})).Return(nil)

		svc := NewEventService(eventRepo, attendanceRepo)
		require.NoError(t, svc.MarkAttendance(1, 4, "quack"))
		attendanceRepo.AssertExpectations(t)
	})

	t.Run("closed event", func(t *testing.T) {
		eventRepo := new(MockEventRepo)
		attendanceRepo := new(MockAttendanceRepo)

		event := openEvent("")
		event.OpenForAttendance = false
		eventRepo.On("GetByID", uint(4)).Return(event, nil)

		svc := NewEventService(eventRepo, attendanceRepo)
		err := svc.MarkAttendance(1, 4, "")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		attendanceRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("outside window with grace", func(t *testing.T) {
		eventRepo := new(MockEventRepo)
		attendanceRepo := new(MockAttendanceRepo)

		event := openEvent("")
		event.StartTime = time.Now().Add(-3 * time.Hour)
		event.EndTime = time.Now().Add(-2 * time.Hour)
		eventRepo.On("GetByID", uint(4)).Return(event, nil)

		svc := NewEventService(eventRepo, attendanceRepo)
		err := svc.MarkAttendance(1, 4, "")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("wrong password", func(t *testing.T) {
		eventRepo := new(MockEventRepo)
		attendanceRepo := new(MockAttendanceRepo)

		eventRepo.On("GetByID", uint(4)).Return(openEvent("quack"), nil)

		svc := NewEventService(eventRepo, attendanceRepo)
		err := svc.MarkAttendance(1, 4, "moo")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		attendanceRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("duplicate mark", func(t *testing.T) {
		eventRepo := new(MockEventRepo)
		attendanceRepo := new(MockAttendanceRepo)

		eventRepo.On("GetByID", uint(4)).Return(openEvent(""), nil)
		attendanceRepo.On("Exists", uint(1), uint(4)).Return(true, nil)

		svc := NewEventService(eventRepo, attendanceRepo)
		err := svc.MarkAttendance(1, 4, "")

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		attendanceRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestValidateEvent(t *testing.T) {
	now := time.Now()

	t.Run("end before start", func(t *testing.T) {
		err := validateEvent(&entity.Event{
			Title:     "Контест",
			StartTime: now,
			EndTime:   now.Add(-time.Minute),
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("bad event link", func(t *testing.T) {
		err := validateEvent(&entity.Event{
			Title:     "Контест",
			StartTime: now,
			EndTime:   now.Add(time.Hour),
			EventLink: "https://example.com/nothing",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("valid contest", func(t *testing.T) {
		err := validateEvent(&entity.Event{
			Title:     "Контест",
			Type:      entity.EventTypeContest,
			StartTime: now,
			EndTime:   now.Add(time.Hour),
			EventLink: "https://codeforces.com/contest/1234",
		})
		assert.NoError(t, err)
	})
}
