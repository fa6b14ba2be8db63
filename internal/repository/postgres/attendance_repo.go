package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// AttendanceRepo реализует repository.AttendanceRepository
type AttendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo создает новый репозиторий отметок присутствия
func NewAttendanceRepo(db *gorm.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// Create создает отметку присутствия
func (r *AttendanceRepo) Create(attendance *entity.Attendance) error {
	if err := r.db.Create(attendance).Error; err != nil {
		if isUniqueViolation(err) {
			// Повторная отметка — не ошибка данных, а конфликт состояния
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// Exists проверяет, отмечен ли пользователь на событии
func (r *AttendanceRepo) Exists(userID, eventID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Attendance{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error
	return count > 0, err
}

// GetUserIDsByEvent возвращает множество отмеченных на событии пользователей
func (r *AttendanceRepo) GetUserIDsByEvent(eventID uint) (map[uint]struct{}, error) {
	var ids []uint
	err := r.db.Model(&entity.Attendance{}).
		Where("event_id = ?", eventID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// CountByEvent возвращает количество отметок на событии
func (r *AttendanceRepo) CountByEvent(eventID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Attendance{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}
