package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/domain/repository"
	"github.com/yourusername/cphub-api/internal/judge"
	"github.com/yourusername/cphub-api/internal/service/standings"
)

// Типы сообщений прогресса синхронизации
const (
	SyncMessageProgress = "progress"
	SyncMessageComplete = "complete"
	SyncMessageError    = "error"
)

// SyncMessage — одно сообщение потока прогресса синхронизации
type SyncMessage struct {
	Type           string             `json:"type"`
	SyncID         string             `json:"sync_id"`
	TotalUsers     int                `json:"total_users,omitempty"`
	ProcessedUsers int                `json:"processed_users,omitempty"`
	UserResults    []standings.Result `json:"user_results,omitempty"`
	TotalStats     *SyncTotals        `json:"total_stats,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// SyncTotals — сводка завершённой синхронизации
type SyncTotals struct {
	Users         int `json:"users"`
	Present       int `json:"present"`
	TotalSolves   int `json:"total_solves"`
	TotalUpsolves int `json:"total_upsolves"`
	Failed        int `json:"failed"`
}

// SyncOptions — параметры запуска синхронизации
type SyncOptions struct {
	EventID uint

	// OnlyUserID: синхронизировать только этого пользователя (апсерт по ключу
	// вместо полной замены). 0 — все участники.
	OnlyUserID uint

	// VjudgeSession — сессионная кука для закрытых контестов VJudge.
	VjudgeSession string
}

// SyncResult — синхронный объект результата для нестримовых вызовов
type SyncResult struct {
	Success bool                         `json:"success"`
	Error   string                       `json:"error,omitempty"`
	Data    map[string]standings.Result  `json:"data,omitempty"`
}

// SyncService — процессор результатов: забирает данные у внешнего судьи,
// нормализует их в solve-статистику, записывает в хранилище и запускает
// агрегатор очков.
//
// Внешние вызовы идут последовательно, по одному на пользователя (AtCoder)
// или одним пакетным запросом (Codeforces, VJudge) — без параллельного
// фан-аута внутри одной синхронизации, чтобы не упираться в рейт-лимиты судей.
//
// Одновременные синхронизации одного события не поддерживаются: полная
// замена статистики не защищена от гонки, запуск предполагается одним
// действием оператора (см. защиту на стороне UI).
type SyncService struct {
	eventRepo      repository.EventRepository
	userRepo       repository.UserRepository
	rankListRepo   repository.RankListRepository
	solveStatRepo  repository.SolveStatRepository
	attendanceRepo repository.AttendanceRepository

	cfClient *judge.CodeforcesClient
	acClient *judge.AtcoderClient
	vjClient *judge.VjudgeClient

	scoreService *ScoreService
}

// NewSyncService создает новый сервис синхронизации результатов
func NewSyncService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	rankListRepo repository.RankListRepository,
	solveStatRepo repository.SolveStatRepository,
	attendanceRepo repository.AttendanceRepository,
	cfClient *judge.CodeforcesClient,
	acClient *judge.AtcoderClient,
	vjClient *judge.VjudgeClient,
	scoreService *ScoreService,
) *SyncService {
	return &SyncService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		rankListRepo:   rankListRepo,
		solveStatRepo:  solveStatRepo,
		attendanceRepo: attendanceRepo,
		cfClient:       cfClient,
		acClient:       acClient,
		vjClient:       vjClient,
		scoreService:   scoreService,
	}
}

// SyncEvent выполняет синхронизацию результатов события.
//
// emit (может быть nil) вызывается на каждое сообщение прогресса; это канал
// "наблюдения", а не управления: прекращение чтения потребителем не
// останавливает синхронизацию — запись в БД обязана завершиться, поэтому
// вызывающая сторона передаёт сюда контекст, не привязанный к HTTP-запросу.
//
// Ошибки уровня контеста (контест не найден, некого опрашивать) прерывают
// синхронизацию ДО каких-либо записей. Ошибки отдельных пользователей
// изолируются в их записях результата и пакет не прерывают.
func (s *SyncService) SyncEvent(ctx context.Context, opts SyncOptions, emit func(SyncMessage)) (*SyncResult, error) {
	syncID := uuid.NewString()
	send := func(msg SyncMessage) {
		if emit != nil {
			msg.SyncID = syncID
			emit(msg)
		}
	}
	fail := func(err error) (*SyncResult, error) {
		send(SyncMessage{Type: SyncMessageError, Error: err.Error()})
		return &SyncResult{Success: false, Error: err.Error()}, err
	}

	event, err := s.eventRepo.GetByID(opts.EventID)
	if err != nil {
		return fail(fmt.Errorf("event #%d: %w", opts.EventID, err))
	}

	ref, err := entity.ParseContestRef(event.EventLink)
	if err != nil {
		return fail(err)
	}

	users, err := s.resolveParticipants(event.ID, ref.Platform, opts.OnlyUserID)
	if err != nil {
		return fail(err)
	}
	if len(users) == 0 {
		return fail(judge.ErrNoEligibleUsers)
	}

	log.Printf("[SyncService] Синхронизация %s события #%d (%s, контест %s): %d участников",
		syncID, event.ID, ref.Platform, ref.ContestID, len(users))

	var results []standings.Result
	switch ref.Platform {
	case entity.PlatformCodeforces:
		results, err = s.syncCodeforces(ctx, ref.ContestID, users, send)
	case entity.PlatformAtcoder:
		results, err = s.syncAtcoder(ctx, ref.ContestID, users, send)
	case entity.PlatformVjudge:
		results, err = s.syncVjudge(ctx, event, ref.ContestID, opts.VjudgeSession, users, send)
	default:
		err = fmt.Errorf("unsupported platform %q", ref.Platform)
	}
	if err != nil {
		return fail(err)
	}

	if err := s.persistResults(ctx, event.ID, opts.OnlyUserID, results); err != nil {
		// Частичная запись: агрегатор очков НЕ запускаем, чтобы не
		// пересчитывать лидерборды по заведомо неполной статистике.
		return fail(err)
	}

	if err := s.scoreService.RecomputeForEvent(event.ID); err != nil {
		// Статистика записана корректно; сбой пересчёта лечится повторным
		// пересчётом, а не повторной синхронизацией.
		log.Printf("[SyncService] Синхронизация %s: статистика записана, но пересчёт очков не удался: %v", syncID, err)
	}

	totals := summarize(results)
	send(SyncMessage{Type: SyncMessageComplete, TotalStats: &totals})
	log.Printf("[SyncService] Синхронизация %s завершена: %d пользователей, %d решений, %d дорешиваний, %d сбоев",
		syncID, totals.Users, totals.TotalSolves, totals.TotalUpsolves, totals.Failed)

	return &SyncResult{Success: true, Data: resultsByHandle(results)}, nil
}

// resolveParticipants собирает пользователей, подписанных (через лидерборды)
// на событие, у которых есть хэндл нужной платформы или которых явно запросили
func (s *SyncService) resolveParticipants(eventID uint, platform string, onlyUserID uint) ([]entity.User, error) {
	links, err := s.rankListRepo.GetRankListsForEvent(eventID)
	if err != nil {
		return nil, err
	}

	idSet := make(map[uint]struct{})
	for _, link := range links {
		subs, err := s.rankListRepo.GetSubscribers(link.RankListID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			idSet[sub.UserID] = struct{}{}
		}
	}

	if onlyUserID != 0 {
		if _, subscribed := idSet[onlyUserID]; !subscribed && len(links) > 0 {
			return nil, fmt.Errorf("user #%d is not subscribed to any ranklist of event #%d", onlyUserID, eventID)
		}
		idSet = map[uint]struct{}{onlyUserID: {}}
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	// Стабильный порядок обхода участников между запусками
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return s.userRepo.GetByIDs(ids)
}

// syncCodeforces: один пакетный вызов standings на все хэндлы, затем
// по-пользовательская выборка рядов
func (s *SyncService) syncCodeforces(ctx context.Context, contestID string, users []entity.User, send func(SyncMessage)) ([]standings.Result, error) {
	handles := make([]string, 0, len(users))
	for _, u := range users {
		if h := u.HandleFor(entity.PlatformCodeforces); h != "" {
			handles = append(handles, h)
		}
	}

	st, err := s.cfClient.FetchStandings(ctx, contestID, handles)
	if err != nil {
		// Ошибка всего пакета (контест не найден, невалидные хэндлы,
		// сеть) — уровень контеста, прерываем до записей.
		return nil, err
	}

	contestRows, practiceRows := standings.SplitCodeforcesRows(st.Rows)

	results := make([]standings.Result, 0, len(users))
	for i, u := range users {
		res := s.codeforcesUserResult(u, contestRows, practiceRows)
		results = append(results, res)
		send(SyncMessage{
			Type:           SyncMessageProgress,
			TotalUsers:     len(users),
			ProcessedUsers: i + 1,
			UserResults:    []standings.Result{res},
		})
	}
	return results, nil
}

func (s *SyncService) codeforcesUserResult(u entity.User, contestRows, practiceRows map[string]*judge.CFRanklistRow) standings.Result {
	handle := u.HandleFor(entity.PlatformCodeforces)
	if handle == "" {
		return standings.Result{UserID: u.ID, Error: "no codeforces handle"}
	}
	key := strings.ToLower(handle)
	res := standings.CountCodeforcesRows(contestRows[key], practiceRows[key])
	res.UserID = u.ID
	res.Handle = handle
	return res
}

// syncAtcoder: метаданные контеста из кешируемого справочника, затем
// последовательный по-пользовательский забор посылок
func (s *SyncService) syncAtcoder(ctx context.Context, contestID string, users []entity.User, send func(SyncMessage)) ([]standings.Result, error) {
	contest, err := s.acClient.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	window := standings.Window{
		Start: contest.StartEpochSecond,
		End:   contest.StartEpochSecond + contest.DurationSecond,
	}

	results := make([]standings.Result, 0, len(users))
	for i, u := range users {
		res := s.atcoderUserResult(ctx, contestID, window, u)
		results = append(results, res)
		send(SyncMessage{
			Type:           SyncMessageProgress,
			TotalUsers:     len(users),
			ProcessedUsers: i + 1,
			UserResults:    []standings.Result{res},
		})
	}
	return results, nil
}

func (s *SyncService) atcoderUserResult(ctx context.Context, contestID string, window standings.Window, u entity.User) standings.Result {
	handle := u.HandleFor(entity.PlatformAtcoder)
	if handle == "" {
		return standings.Result{UserID: u.ID, Error: "no atcoder handle"}
	}

	subs, err := s.acClient.FetchUserSubmissions(ctx, handle, window.Start)
	if err != nil {
		// Сбой одного пользователя не прерывает пакет: нулевые счётчики
		// с аннотацией ошибки.
		log.Printf("[SyncService] AtCoder: сбой пользователя %s: %v", handle, err)
		return standings.Result{UserID: u.ID, Handle: handle, Error: err.Error()}
	}

	res := standings.CountSubmissions(window, standings.FromAtcoderSubmissions(contestID, subs))
	res.UserID = u.ID
	res.Handle = handle
	return res
}

// syncVjudge: один забор таблицы результатов, затем по-пользовательская
// выборка; при strict_attendance присутствие берётся из отметок Attendance
func (s *SyncService) syncVjudge(ctx context.Context, event *entity.Event, contestID, session string, users []entity.User, send func(SyncMessage)) ([]standings.Result, error) {
	if session != "" {
		if _, err := s.vjClient.ValidateSession(ctx, session); err != nil {
			return nil, err
		}
	}

	rank, err := s.vjClient.FetchRank(ctx, contestID, session)
	if err != nil {
		return nil, err
	}

	// Окно в относительных секундах от начала контеста
	window := standings.Window{Start: 0, End: rank.Length / 1000}
	subsByHandle := vjudgeSubmissionsByHandle(rank)

	var attended map[uint]struct{}
	if event.StrictAttendance {
		attended, err = s.attendanceRepo.GetUserIDsByEvent(event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load attendance for event #%d: %w", event.ID, err)
		}
	}

	results := make([]standings.Result, 0, len(users))
	for i, u := range users {
		res := s.vjudgeUserResult(window, subsByHandle, u)
		if event.StrictAttendance && res.Error == "" {
			_, ok := attended[u.ID]
			res = standings.ApplyStrictAttendance(res, ok)
		}
		results = append(results, res)
		send(SyncMessage{
			Type:           SyncMessageProgress,
			TotalUsers:     len(users),
			ProcessedUsers: i + 1,
			UserResults:    []standings.Result{res},
		})
	}
	return results, nil
}

func (s *SyncService) vjudgeUserResult(window standings.Window, subsByHandle map[string][]standings.Submission, u entity.User) standings.Result {
	handle := u.HandleFor(entity.PlatformVjudge)
	if handle == "" {
		return standings.Result{UserID: u.ID, Error: "no vjudge handle"}
	}

	res := standings.CountSubmissions(window, subsByHandle[strings.ToLower(handle)])
	res.UserID = u.ID
	res.Handle = handle
	return res
}

// vjudgeSubmissionsByHandle раскладывает посылки таблицы по хэндлам участников
func vjudgeSubmissionsByHandle(rank *judge.VJRank) map[string][]standings.Submission {
	handleByParticipant := make(map[int64]string, len(rank.Participants))
	for pid, info := range rank.Participants {
		if len(info) == 0 {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(pid, "%d", &id); err != nil {
			continue
		}
		handleByParticipant[id] = strings.ToLower(info[0])
	}

	out := make(map[string][]standings.Submission)
	for _, sub := range rank.Submissions {
		handle, ok := handleByParticipant[sub[0]]
		if !ok {
			continue
		}
		out[handle] = append(out[handle], standings.Submission{
			ProblemID: fmt.Sprintf("%d", sub[1]),
			At:        sub[3],
			Accepted:  sub[2] == 1,
		})
	}
	return out
}

// persistResults записывает нормализованные результаты: полная замена по
// событию либо апсерт одного пользователя
func (s *SyncService) persistResults(ctx context.Context, eventID, onlyUserID uint, results []standings.Result) error {
	if onlyUserID != 0 {
		for _, res := range results {
			if res.UserID != onlyUserID {
				continue
			}
			return s.solveStatRepo.UpsertOne(&entity.SolveStat{
				UserID:       res.UserID,
				EventID:      eventID,
				SolveCount:   res.SolveCount,
				UpsolveCount: res.UpsolveCount,
				IsPresent:    res.IsPresent,
			})
		}
		return fmt.Errorf("no result produced for user #%d", onlyUserID)
	}

	stats := make([]entity.SolveStat, 0, len(results))
	for _, res := range results {
		stats = append(stats, entity.SolveStat{
			UserID:       res.UserID,
			EventID:      eventID,
			SolveCount:   res.SolveCount,
			UpsolveCount: res.UpsolveCount,
			IsPresent:    res.IsPresent,
		})
	}
	return s.solveStatRepo.ReplaceAllForEvent(ctx, eventID, stats)
}

func summarize(results []standings.Result) SyncTotals {
	totals := SyncTotals{Users: len(results)}
	for _, res := range results {
		totals.TotalSolves += res.SolveCount
		totals.TotalUpsolves += res.UpsolveCount
		if res.IsPresent {
			totals.Present++
		}
		if res.Error != "" {
			totals.Failed++
		}
	}
	return totals
}

func resultsByHandle(results []standings.Result) map[string]standings.Result {
	out := make(map[string]standings.Result, len(results))
	for _, res := range results {
		key := res.Handle
		if key == "" {
			key = fmt.Sprintf("user#%d", res.UserID)
		}
		out[key] = res
	}
	return out
}

// IsAuthRequired сообщает, вызван ли сбой синхронизации отсутствием сессии
// (вызывающая сторона предлагает ввести учётные данные VJudge)
func IsAuthRequired(err error) bool {
	return errors.Is(err, judge.ErrAuthRequired)
}
