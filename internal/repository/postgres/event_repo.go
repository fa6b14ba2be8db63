package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// EventRepo реализует repository.EventRepository
type EventRepo struct {
	db *gorm.DB
}

// NewEventRepo создает новый репозиторий событий
func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create создает новое событие
func (r *EventRepo) Create(event *entity.Event) error {
	return r.db.Create(event).Error
}

// GetByID возвращает событие по ID
func (r *EventRepo) GetByID(id uint) (*entity.Event, error) {
	var event entity.Event
	err := r.db.First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// GetWithRankLists возвращает событие вместе со связями event_rank_lists
func (r *EventRepo) GetWithRankLists(id uint) (*entity.Event, error) {
	var event entity.Event
	err := r.db.Preload("RankLists").First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// List возвращает события с пагинацией, опционально фильтруя по типу
func (r *EventRepo) List(eventType string, limit, offset int) ([]entity.Event, int64, error) {
	var events []entity.Event
	var total int64

	query := r.db.Model(&entity.Event{})
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("start_time DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// Update обновляет событие
func (r *EventRepo) Update(event *entity.Event) error {
	return r.db.Save(event).Error
}

// Delete удаляет событие
func (r *EventRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
