package entity

import (
	"time"
)

// RankList представляет именованный лидерборд в рамках сезона.
// Очки подписанных пользователей складываются из SolveStat по всем
// привязанным событиям с учётом весов.
type RankList struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:150;not null" json:"title"`
	Session     string `gorm:"size:50;not null;default:'';index" json:"session"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`

	// WeightOfUpsolve — множитель, применяемый ко ВСЕМ дорешанным задачам
	// по всем привязанным событиям этого лидерборда.
	WeightOfUpsolve float64 `gorm:"not null;default:0.25" json:"weight_of_upsolve"`

	Events []EventRankList `gorm:"foreignKey:RankListID" json:"events,omitempty"`
	Users  []RankListUser  `gorm:"foreignKey:RankListID" json:"users,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RankList) TableName() string {
	return "rank_lists"
}

// EventRankList — связь событие↔лидерборд с весом события.
// Одно событие может питать несколько лидербордов с разными весами.
type EventRankList struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EventID    uint `gorm:"not null;index;uniqueIndex:idx_event_ranklist" json:"event_id"`
	RankListID uint `gorm:"not null;index;uniqueIndex:idx_event_ranklist" json:"rank_list_id"`

	// Weight — множитель решений/дорешиваний этого события при сворачивании
	// в очки лидерборда.
	Weight float64 `gorm:"not null;default:1" json:"weight"`

	Event    *Event    `gorm:"foreignKey:EventID" json:"event,omitempty"`
	RankList *RankList `gorm:"foreignKey:RankListID" json:"rank_list,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (EventRankList) TableName() string {
	return "event_rank_lists"
}

// RankListUser — подписка пользователя на лидерборд с кешированной суммой очков.
// Score — ВСЕГДА производное значение: его пересчитывает агрегатор очков,
// читающие пути никогда не считают его на лету.
type RankListUser struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	RankListID uint    `gorm:"not null;index;uniqueIndex:idx_ranklist_user" json:"rank_list_id"`
	UserID     uint    `gorm:"not null;index;uniqueIndex:idx_ranklist_user" json:"user_id"`
	Score      float64 `gorm:"not null;default:0;index" json:"score"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RankListUser) TableName() string {
	return "rank_list_users"
}
