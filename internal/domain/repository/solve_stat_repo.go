package repository

import (
	"context"

	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// SolveStatRepository определяет методы для работы с solve-статистикой.
// Инвариант "не более одной записи на (user, event)" поддерживается
// реализацией: апсерт по ключу и массовая замена delete-then-insert.
type SolveStatRepository interface {
	FindByEventAndUser(eventID, userID uint) (*entity.SolveStat, error)
	GetByEvent(eventID uint) ([]entity.SolveStat, error)

	// GetByEventsAndUsers возвращает статистику по множеству событий и
	// пользователей одним запросом (для агрегатора очков).
	GetByEventsAndUsers(eventIDs, userIDs []uint) ([]entity.SolveStat, error)

	// UpsertOne создаёт запись или перезаписывает счётчики существующей.
	UpsertOne(stat *entity.SolveStat) error

	// ReplaceAllForEvent удаляет все записи события и вставляет свежие
	// пакетами, каждый пакет в транзакции с ограниченной длительностью.
	// При частичном сбое уже закоммиченные пакеты остаются применёнными.
	ReplaceAllForEvent(ctx context.Context, eventID uint, stats []entity.SolveStat) error

	DeleteByEvent(eventID uint) error
}
