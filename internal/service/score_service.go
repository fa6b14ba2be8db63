package service

import (
	"fmt"
	"log"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/domain/repository"
)

// ScoreService — агрегатор очков. Пересчитывает кешированный
// RankListUser.Score как чистую функцию от solve-статистики, весов событий
// и множителя дорешивания лидерборда.
//
// Формула на пользователя, суммой по всем привязанным событиям:
//
//	eventScore = solveCount*weight + upsolveCount*weight*weightOfUpsolve
//
// Отсутствующая запись SolveStat даёт вклад 0. Пересчёт полностью
// перезаписывает кеш (никаких инкрементальных дельт) — повтор пересчёта
// с теми же данными сходится к тому же значению.
type ScoreService struct {
	rankListRepo  repository.RankListRepository
	solveStatRepo repository.SolveStatRepository
}

// NewScoreService создает новый агрегатор очков
func NewScoreService(
	rankListRepo repository.RankListRepository,
	solveStatRepo repository.SolveStatRepository,
) *ScoreService {
	return &ScoreService{
		rankListRepo:  rankListRepo,
		solveStatRepo: solveStatRepo,
	}
}

// RecomputeRankList пересчитывает очки ВСЕХ подписчиков лидерборда.
// Пересчитываются все, а не только затронутые синхронизацией: конфигурация
// весов лидерборда могла измениться независимо от solve-статистики.
func (s *ScoreService) RecomputeRankList(rankListID uint) error {
	rankList, err := s.rankListRepo.GetByID(rankListID)
	if err != nil {
		return fmt.Errorf("failed to load ranklist #%d: %w", rankListID, err)
	}

	links, err := s.rankListRepo.GetEventLinks(rankListID)
	if err != nil {
		return fmt.Errorf("failed to load event links for ranklist #%d: %w", rankListID, err)
	}

	subs, err := s.rankListRepo.GetSubscribers(rankListID)
	if err != nil {
		return fmt.Errorf("failed to load subscribers of ranklist #%d: %w", rankListID, err)
	}
	if len(subs) == 0 {
		log.Printf("[ScoreService] Лидерборд #%d без подписчиков, пересчёт не требуется", rankListID)
		return nil
	}

	eventIDs := make([]uint, 0, len(links))
	weightByEvent := make(map[uint]float64, len(links))
	for _, link := range links {
		eventIDs = append(eventIDs, link.EventID)
		weightByEvent[link.EventID] = link.Weight
	}

	userIDs := make([]uint, 0, len(subs))
	for _, sub := range subs {
		userIDs = append(userIDs, sub.UserID)
	}

	stats, err := s.solveStatRepo.GetByEventsAndUsers(eventIDs, userIDs)
	if err != nil {
		return fmt.Errorf("failed to load solve stats for ranklist #%d: %w", rankListID, err)
	}

	scores := ComputeScores(rankList.WeightOfUpsolve, weightByEvent, userIDs, stats)

	// Последовательное обновление по подписчикам: атомарность по всем
	// пользователям не требуется, каждый score самодостаточен.
	var failed int
	for _, sub := range subs {
		if err := s.rankListRepo.UpdateScore(rankListID, sub.UserID, scores[sub.UserID]); err != nil {
			failed++
			log.Printf("[ScoreService] Ошибка обновления score для пользователя #%d в лидерборде #%d: %v",
				sub.UserID, rankListID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("score recompute for ranklist #%d: %d of %d updates failed", rankListID, failed, len(subs))
	}

	log.Printf("[ScoreService] Пересчитаны очки %d подписчиков лидерборда #%d (%d событий)",
		len(subs), rankListID, len(links))
	return nil
}

// RecomputeForEvent пересчитывает все лидерборды, в которые привязано событие.
// Вызывается после каждой записи solve-статистики (массовой или одиночной).
func (s *ScoreService) RecomputeForEvent(eventID uint) error {
	links, err := s.rankListRepo.GetRankListsForEvent(eventID)
	if err != nil {
		return fmt.Errorf("failed to load ranklists for event #%d: %w", eventID, err)
	}
	if len(links) == 0 {
		return nil
	}

	var firstErr error
	for _, link := range links {
		if err := s.RecomputeRankList(link.RankListID); err != nil {
			log.Printf("[ScoreService] Ошибка пересчёта лидерборда #%d после события #%d: %v",
				link.RankListID, eventID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ComputeScores — чистая функция расчёта очков по формуле лидерборда.
// Возвращает score для каждого из userIDs (0, если статистики нет).
func ComputeScores(weightOfUpsolve float64, weightByEvent map[uint]float64, userIDs []uint, stats []entity.SolveStat) map[uint]float64 {
	scores := make(map[uint]float64, len(userIDs))
	for _, id := range userIDs {
		scores[id] = 0
	}

	for _, st := range stats {
		weight, linked := weightByEvent[st.EventID]
		if !linked {
			continue
		}
		if _, subscribed := scores[st.UserID]; !subscribed {
			continue
		}
		scores[st.UserID] += float64(st.SolveCount)*weight +
			float64(st.UpsolveCount)*weight*weightOfUpsolve
	}
	return scores
}
