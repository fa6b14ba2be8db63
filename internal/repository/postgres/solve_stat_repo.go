package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// SolveStatRepo реализует repository.SolveStatRepository
type SolveStatRepo struct {
	db *gorm.DB

	// batchSize и txTimeout ограничивают пакетную запись ReplaceAllForEvent:
	// мелкие пакеты в коротких транзакциях вместо одной гигантской.
	batchSize int
	txTimeout time.Duration
}

// NewSolveStatRepo создает новый репозиторий solve-статистики
func NewSolveStatRepo(db *gorm.DB, batchSize int, txTimeout time.Duration) *SolveStatRepo {
	if batchSize <= 0 {
		batchSize = 10
	}
	if txTimeout <= 0 {
		txTimeout = 10 * time.Second
	}
	return &SolveStatRepo{db: db, batchSize: batchSize, txTimeout: txTimeout}
}

// FindByEventAndUser возвращает запись пары (event, user)
func (r *SolveStatRepo) FindByEventAndUser(eventID, userID uint) (*entity.SolveStat, error) {
	var stat entity.SolveStat
	err := r.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &stat, nil
}

// GetByEvent возвращает всю статистику события
func (r *SolveStatRepo) GetByEvent(eventID uint) ([]entity.SolveStat, error) {
	var stats []entity.SolveStat
	err := r.db.Where("event_id = ?", eventID).Order("user_id").Find(&stats).Error
	return stats, err
}

// GetByEventsAndUsers возвращает статистику по множеству событий и пользователей.
// Пустой срез eventIDs или userIDs означает пустой результат, не "все записи".
func (r *SolveStatRepo) GetByEventsAndUsers(eventIDs, userIDs []uint) ([]entity.SolveStat, error) {
	if len(eventIDs) == 0 || len(userIDs) == 0 {
		return nil, nil
	}
	var stats []entity.SolveStat
	err := r.db.Where("event_id IN ? AND user_id IN ?", eventIDs, userIDs).Find(&stats).Error
	return stats, err
}

// UpsertOne создаёт запись или перезаписывает счётчики существующей.
// Уникальный индекс (user_id, event_id) гарантирует не более одной записи на пару.
func (r *SolveStatRepo) UpsertOne(stat *entity.SolveStat) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"solve_count", "upsolve_count", "is_present", "updated_at",
		}),
	}).Create(stat).Error
}

// ReplaceAllForEvent удаляет все записи события и вставляет свежие пакетами.
// Каждый пакет коммитится в собственной транзакции с лимитом txTimeout, чтобы
// большое число участников не раздувало одну транзакцию и блокировки.
//
// Семантика сбоев: уже закоммиченные пакеты остаются в БД (частичное
// применение допустимо), операция сообщает об ошибке, и вызывающая сторона
// повторяет синхронизацию целиком — повтор с теми же данными сходится к тому
// же конечному состоянию.
func (r *SolveStatRepo) ReplaceAllForEvent(ctx context.Context, eventID uint, stats []entity.SolveStat) error {
	// Сначала удаляем всё существующее по событию.
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&entity.SolveStat{}).Error; err != nil {
		return fmt.Errorf("failed to clear solve stats for event #%d: %w", eventID, err)
	}

	applied := 0
	for i := 0; i < len(stats); i += r.batchSize {
		end := i + r.batchSize
		if end > len(stats) {
			end = len(stats)
		}
		if err := r.insertBatch(ctx, stats[i:end]); err != nil {
			if applied == 0 {
				// Все старые записи удалены, ни одной новой не записано:
				// состояние ХУЖЕ, чем до синхронизации. Логируем отдельно,
				// чтобы оператор понял, что пустота — это не "никто не решал".
				log.Printf("[SolveStatRepo] КРИТИЧНО: событие #%d осталось без solve-статистики после неудачной замены (старые записи удалены, новые не записаны): %v", eventID, err)
			} else {
				log.Printf("[SolveStatRepo] Частичный сбой замены для события #%d: применено %d из %d записей: %v", eventID, applied, len(stats), err)
			}
			return fmt.Errorf("%w: event #%d, applied %d of %d: %v",
				apperrors.ErrPersistencePartialFailure, eventID, applied, len(stats), err)
		}
		applied = end
	}

	log.Printf("[SolveStatRepo] Замена solve-статистики события #%d завершена: %d записей", eventID, len(stats))
	return nil
}

// insertBatch вставляет один пакет в транзакции с ограниченной длительностью
func (r *SolveStatRepo) insertBatch(ctx context.Context, batch []entity.SolveStat) error {
	txCtx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	err := r.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		if errors.Is(txCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", apperrors.ErrPersistenceTimeout, err)
		}
		if isUniqueViolation(err) {
			// После delete-then-insert дубликат пары (user, event) возможен
			// только при конкурирующей синхронизации того же события.
			return fmt.Errorf("%w: concurrent sync suspected: %v", apperrors.ErrConflict, err)
		}
		return err
	}
	return nil
}

// DeleteByEvent удаляет всю статистику события
func (r *SolveStatRepo) DeleteByEvent(eventID uint) error {
	return r.db.Where("event_id = ?", eventID).Delete(&entity.SolveStat{}).Error
}
