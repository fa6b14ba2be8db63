package repository

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// AttendanceRepository определяет методы для работы с отметками присутствия
type AttendanceRepository interface {
	Create(attendance *entity.Attendance) error
	Exists(userID, eventID uint) (bool, error)

	// GetUserIDsByEvent возвращает множество пользователей, отмеченных на событии
	// (используется процессором результатов при strict_attendance).
	GetUserIDsByEvent(eventID uint) (map[uint]struct{}, error)

	CountByEvent(eventID uint) (int64, error)
}
