package repository

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// RankListRepository определяет методы для работы с лидербордами и их связями
type RankListRepository interface {
	Create(rankList *entity.RankList) error
	GetByID(id uint) (*entity.RankList, error)
	List(session string, limit, offset int) ([]entity.RankList, int64, error)
	Update(rankList *entity.RankList) error
	Delete(id uint) error

	// Связи событие↔лидерборд
	AttachEvent(rankListID, eventID uint, weight float64) error
	DetachEvent(rankListID, eventID uint) error
	GetEventLinks(rankListID uint) ([]entity.EventRankList, error)

	// GetRankListsForEvent возвращает все лидерборды, в которые привязано событие.
	GetRankListsForEvent(eventID uint) ([]entity.EventRankList, error)

	// Подписки пользователей
	Subscribe(rankListID, userID uint) error
	Unsubscribe(rankListID, userID uint) error
	GetSubscribers(rankListID uint) ([]entity.RankListUser, error)

	// GetStandings возвращает подписки с предзагруженными пользователями,
	// отсортированные по кешированному score.
	GetStandings(rankListID uint, limit, offset int) ([]entity.RankListUser, int64, error)

	// UpdateScore полностью перезаписывает кешированный score подписки.
	UpdateScore(rankListID, userID uint, score float64) error
}
