package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/domain/repository"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// EventService предоставляет методы для работы с событиями и отметками
// присутствия
type EventService struct {
	eventRepo      repository.EventRepository
	attendanceRepo repository.AttendanceRepository
}

// NewEventService создает новый сервис событий
func NewEventService(eventRepo repository.EventRepository, attendanceRepo repository.AttendanceRepository) *EventService {
	return &EventService{
		eventRepo:      eventRepo,
		attendanceRepo: attendanceRepo,
	}
}

// CreateEvent создает новое событие
func (s *EventService) CreateEvent(event *entity.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if err := s.eventRepo.Create(event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	log.Printf("[EventService] Создано событие #%d (%s)", event.ID, event.Title)
	return nil
}

// GetEventByID возвращает событие по ID вместе со связанными лидербордами
func (s *EventService) GetEventByID(id uint) (*entity.Event, error) {
	return s.eventRepo.GetWithRankLists(id)
}

// ListEvents возвращает страницу событий, опционально отфильтрованных по типу
func (s *EventService) ListEvents(eventType string, limit, offset int) ([]entity.Event, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.eventRepo.List(eventType, limit, offset)
}

// UpdateEvent обновляет событие
func (s *EventService) UpdateEvent(event *entity.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if _, err := s.eventRepo.GetByID(event.ID); err != nil {
		return err
	}
	return s.eventRepo.Update(event)
}

// DeleteEvent удаляет событие вместе со связями и статистикой (каскад в БД)
func (s *EventService) DeleteEvent(id uint) error {
	if _, err := s.eventRepo.GetByID(id); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete event #%d: %w", id, err)
	}
	log.Printf("[EventService] Удалено событие #%d", id)
	return nil
}

// MarkAttendance отмечает присутствие пользователя на событии.
// Отметка возможна только пока событие открыто для отметок и текущее время
// попадает в окно события (с 15-минутным люфтом с обеих сторон).
func (s *EventService) MarkAttendance(userID, eventID uint, password string) error {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return err
	}

	if !event.OpenForAttendance {
		return fmt.Errorf("%w: attendance is closed for this event", apperrors.ErrForbidden)
	}

	const grace = 15 * time.Minute
	now := time.Now()
	if now.Before(event.StartTime.Add(-grace)) || now.After(event.EndTime.Add(grace)) {
		return fmt.Errorf("%w: attendance window is over", apperrors.ErrForbidden)
	}

	if event.AttendancePassword != "" && event.AttendancePassword != password {
		return fmt.Errorf("%w: wrong attendance password", apperrors.ErrForbidden)
	}

	exists, err := s.attendanceRepo.Exists(userID, eventID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: attendance already marked", apperrors.ErrConflict)
	}

	return s.attendanceRepo.Create(&entity.Attendance{
		UserID:  userID,
		EventID: eventID,
	})
}

// HasAttendance проверяет, отмечен ли пользователь на событии
func (s *EventService) HasAttendance(userID, eventID uint) (bool, error) {
	return s.attendanceRepo.Exists(userID, eventID)
}

// CountAttendance возвращает число отметившихся на событии
func (s *EventService) CountAttendance(eventID uint) (int64, error) {
	return s.attendanceRepo.CountByEvent(eventID)
}

func validateEvent(event *entity.Event) error {
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if event.EndTime.Before(event.StartTime) {
		return fmt.Errorf("%w: end_time is before start_time", apperrors.ErrValidation)
	}
	if event.EventLink != "" {
		if _, err := entity.ParseContestRef(event.EventLink); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}
	switch event.Type {
	case "", entity.EventTypeContest, entity.EventTypeClass, entity.EventTypeOther:
	default:
		return fmt.Errorf("%w: unknown event type %q", apperrors.ErrValidation, event.Type)
	}
	return nil
}
