package repository

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// EventRepository определяет методы для работы с событиями
type EventRepository interface {
	Create(event *entity.Event) error
	GetByID(id uint) (*entity.Event, error)

	// GetWithRankLists возвращает событие вместе со связями event_rank_lists.
	GetWithRankLists(id uint) (*entity.Event, error)

	List(eventType string, limit, offset int) ([]entity.Event, int64, error)
	Update(event *entity.Event) error
	Delete(id uint) error
}
