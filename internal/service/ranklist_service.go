package service

import (
	"fmt"
	"log"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/domain/repository"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// RankListService предоставляет методы для работы с лидербордами:
// CRUD, привязка событий, подписки и чтение таблицы результатов
type RankListService struct {
	rankListRepo repository.RankListRepository
	eventRepo    repository.EventRepository
	scoreService *ScoreService
}

// NewRankListService создает новый сервис лидербордов
func NewRankListService(rankListRepo repository.RankListRepository, eventRepo repository.EventRepository, scoreService *ScoreService) *RankListService {
	return &RankListService{
		rankListRepo: rankListRepo,
		eventRepo:    eventRepo,
		scoreService: scoreService,
	}
}

// CreateRankList создает новый лидерборд
func (s *RankListService) CreateRankList(rankList *entity.RankList) error {
	if err := validateRankList(rankList); err != nil {
		return err
	}
	return s.rankListRepo.Create(rankList)
}

// GetRankListByID возвращает лидерборд по ID
func (s *RankListService) GetRankListByID(id uint) (*entity.RankList, error) {
	return s.rankListRepo.GetByID(id)
}

// ListRankLists возвращает страницу лидербордов, опционально по сезону
func (s *RankListService) ListRankLists(session string, limit, offset int) ([]entity.RankList, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.rankListRepo.List(session, limit, offset)
}

// UpdateRankList обновляет лидерборд. Изменение веса дорешивания меняет
// формулу очков, поэтому после сохранения запускается полный пересчёт.
func (s *RankListService) UpdateRankList(rankList *entity.RankList) error {
	if err := validateRankList(rankList); err != nil {
		return err
	}
	current, err := s.rankListRepo.GetByID(rankList.ID)
	if err != nil {
		return err
	}
	if err := s.rankListRepo.Update(rankList); err != nil {
		return err
	}
	if current.WeightOfUpsolve != rankList.WeightOfUpsolve {
		return s.scoreService.RecomputeRankList(rankList.ID)
	}
	return nil
}

// DeleteRankList удаляет лидерборд вместе со связями и подписками
func (s *RankListService) DeleteRankList(id uint) error {
	if _, err := s.rankListRepo.GetByID(id); err != nil {
		return err
	}
	return s.rankListRepo.Delete(id)
}

// AttachEvent привязывает событие к лидерборду с указанным весом и
// пересчитывает очки: очки всех подписчиков получают слагаемое нового события
func (s *RankListService) AttachEvent(rankListID, eventID uint, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("%w: weight must be non-negative", apperrors.ErrValidation)
	}
	if _, err := s.rankListRepo.GetByID(rankListID); err != nil {
		return err
	}
	if _, err := s.eventRepo.GetByID(eventID); err != nil {
		return err
	}
	if err := s.rankListRepo.AttachEvent(rankListID, eventID, weight); err != nil {
		return err
	}
	log.Printf("[RankListService] Событие #%d привязано к лидерборду #%d с весом %.2f", eventID, rankListID, weight)
	return s.scoreService.RecomputeRankList(rankListID)
}

// DetachEvent отвязывает событие от лидерборда и пересчитывает очки
func (s *RankListService) DetachEvent(rankListID, eventID uint) error {
	if err := s.rankListRepo.DetachEvent(rankListID, eventID); err != nil {
		return err
	}
	log.Printf("[RankListService] Событие #%d отвязано от лидерборда #%d", eventID, rankListID)
	return s.scoreService.RecomputeRankList(rankListID)
}

// GetEventLinks возвращает привязки событий лидерборда
func (s *RankListService) GetEventLinks(rankListID uint) ([]entity.EventRankList, error) {
	if _, err := s.rankListRepo.GetByID(rankListID); err != nil {
		return nil, err
	}
	return s.rankListRepo.GetEventLinks(rankListID)
}

// Subscribe подписывает пользователя на лидерборд. Начальный счёт
// вычисляется сразу из уже накопленной solve-статистики.
func (s *RankListService) Subscribe(rankListID, userID uint) error {
	if _, err := s.rankListRepo.GetByID(rankListID); err != nil {
		return err
	}
	if err := s.rankListRepo.Subscribe(rankListID, userID); err != nil {
		return err
	}
	return s.scoreService.RecomputeRankList(rankListID)
}

// Unsubscribe отписывает пользователя от лидерборда
func (s *RankListService) Unsubscribe(rankListID, userID uint) error {
	return s.rankListRepo.Unsubscribe(rankListID, userID)
}

// GetStandings возвращает страницу таблицы лидерборда по кешированным очкам
func (s *RankListService) GetStandings(rankListID uint, limit, offset int) ([]entity.RankListUser, int64, error) {
	if _, err := s.rankListRepo.GetByID(rankListID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.rankListRepo.GetStandings(rankListID, limit, offset)
}

func validateRankList(rankList *entity.RankList) error {
	if rankList.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if rankList.WeightOfUpsolve < 0 || rankList.WeightOfUpsolve > 1 {
		return fmt.Errorf("%w: weight_of_upsolve must be within [0, 1]", apperrors.ErrValidation)
	}
	return nil
}
