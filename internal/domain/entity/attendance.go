package entity

import (
	"time"
)

// Attendance — отметка присутствия пользователя на событии.
// Читается процессором результатов при strict_attendance: присутствие тогда
// определяется этой записью, а не посылками в окне контеста.
type Attendance struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index;uniqueIndex:idx_attendance_user_event" json:"user_id"`
	EventID uint `gorm:"not null;index;uniqueIndex:idx_attendance_user_event" json:"event_id"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Attendance) TableName() string {
	return "attendances"
}
