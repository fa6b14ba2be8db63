package entity

import (
	"time"
)

// SolveStat — единственный источник истины по решениям пользователя на событии.
// Инвариант: не более одной записи на пару (UserID, EventID); апсерты и
// массовая замена обязаны его поддерживать.
type SolveStat struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index;uniqueIndex:idx_user_event" json:"user_id"`
	EventID uint `gorm:"not null;index;uniqueIndex:idx_user_event" json:"event_id"`

	// SolveCount — задачи, решённые внутри окна контеста (каждая задача
	// учитывается один раз независимо от числа успешных посылок).
	SolveCount int `gorm:"not null;default:0" json:"solve_count"`

	// UpsolveCount — задачи, решённые после закрытия окна и НЕ решённые в окне.
	UpsolveCount int `gorm:"not null;default:0" json:"upsolve_count"`

	IsPresent bool `gorm:"not null;default:false" json:"is_present"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (SolveStat) TableName() string {
	return "solve_stats"
}
