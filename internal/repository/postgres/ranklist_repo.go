package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// RankListRepo реализует repository.RankListRepository
type RankListRepo struct {
	db *gorm.DB
}

// NewRankListRepo создает новый репозиторий лидербордов
func NewRankListRepo(db *gorm.DB) *RankListRepo {
	return &RankListRepo{db: db}
}

// Create создает новый лидерборд
func (r *RankListRepo) Create(rankList *entity.RankList) error {
	return r.db.Create(rankList).Error
}

// GetByID возвращает лидерборд по ID
func (r *RankListRepo) GetByID(id uint) (*entity.RankList, error) {
	var rankList entity.RankList
	err := r.db.First(&rankList, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &rankList, nil
}

// List возвращает лидерборды с пагинацией, опционально фильтруя по сезону
func (r *RankListRepo) List(session string, limit, offset int) ([]entity.RankList, int64, error) {
	var rankLists []entity.RankList
	var total int64

	query := r.db.Model(&entity.RankList{})
	if session != "" {
		query = query.Where("session = ?", session)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&rankLists).Error
	return rankLists, total, err
}

// Update обновляет лидерборд
func (r *RankListRepo) Update(rankList *entity.RankList) error {
	return r.db.Save(rankList).Error
}

// Delete удаляет лидерборд вместе со связями и подписками
func (r *RankListRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rank_list_id = ?", id).Delete(&entity.EventRankList{}).Error; err != nil {
			return err
		}
		if err := tx.Where("rank_list_id = ?", id).Delete(&entity.RankListUser{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.RankList{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// AttachEvent привязывает событие к лидерборду с весом
func (r *RankListRepo) AttachEvent(rankListID, eventID uint, weight float64) error {
	link := entity.EventRankList{
		EventID:    eventID,
		RankListID: rankListID,
		Weight:     weight,
	}
	if err := r.db.Create(&link).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// DetachEvent отвязывает событие от лидерборда
func (r *RankListRepo) DetachEvent(rankListID, eventID uint) error {
	result := r.db.Where("rank_list_id = ? AND event_id = ?", rankListID, eventID).
		Delete(&entity.EventRankList{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetEventLinks возвращает связи лидерборда с событиями (с предзагрузкой событий)
func (r *RankListRepo) GetEventLinks(rankListID uint) ([]entity.EventRankList, error) {
	var links []entity.EventRankList
	err := r.db.Where("rank_list_id = ?", rankListID).Preload("Event").Find(&links).Error
	return links, err
}

// GetRankListsForEvent возвращает все лидерборды, в которые привязано событие
func (r *RankListRepo) GetRankListsForEvent(eventID uint) ([]entity.EventRankList, error) {
	var links []entity.EventRankList
	err := r.db.Where("event_id = ?", eventID).Preload("RankList").Find(&links).Error
	return links, err
}

// Subscribe подписывает пользователя на лидерборд
func (r *RankListRepo) Subscribe(rankListID, userID uint) error {
	sub := entity.RankListUser{
		RankListID: rankListID,
		UserID:     userID,
	}
	if err := r.db.Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// Unsubscribe отписывает пользователя от лидерборда
func (r *RankListRepo) Unsubscribe(rankListID, userID uint) error {
	result := r.db.Where("rank_list_id = ? AND user_id = ?", rankListID, userID).
		Delete(&entity.RankListUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetSubscribers возвращает все подписки лидерборда с пользователями
func (r *RankListRepo) GetSubscribers(rankListID uint) ([]entity.RankListUser, error) {
	var subs []entity.RankListUser
	err := r.db.Where("rank_list_id = ?", rankListID).Preload("User").Find(&subs).Error
	return subs, err
}

// GetStandings возвращает подписки, отсортированные по кешированному score.
// Score здесь НЕ пересчитывается: читаем только денормализованное значение.
func (r *RankListRepo) GetStandings(rankListID uint, limit, offset int) ([]entity.RankListUser, int64, error) {
	var subs []entity.RankListUser
	var total int64

	if err := r.db.Model(&entity.RankListUser{}).
		Where("rank_list_id = ?", rankListID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Where("rank_list_id = ?", rankListID).
		Preload("User").
		Order("score DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&subs).Error
	return subs, total, err
}

// UpdateScore полностью перезаписывает кешированный score подписки
func (r *RankListRepo) UpdateScore(rankListID, userID uint, score float64) error {
	result := r.db.Model(&entity.RankListUser{}).
		Where("rank_list_id = ? AND user_id = ?", rankListID, userID).
		Update("score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
