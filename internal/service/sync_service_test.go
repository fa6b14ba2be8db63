package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/judge"
)

// ============================================================================
// Моки остальных репозиториев (MockRankListRepo и MockSolveStatRepo
// объявлены в score_service_test.go)
// ============================================================================

// MockEventRepo реализует repository.EventRepository
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(event *entity.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepo) GetByID(id uint) (*entity.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Event), args.Error(1)
}

func (m *MockEventRepo) GetWithRankLists(id uint) (*entity.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Event), args.Error(1)
}

func (m *MockEventRepo) List(eventType string, limit, offset int) ([]entity.Event, int64, error) {
	args := m.Called(eventType, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockEventRepo) Update(event *entity.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockUserRepo реализует repository.UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByIDs(ids []uint) ([]entity.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepo) List(limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) UpdateHandles(userID uint, codeforces, atcoder, vjudge string) error {
	args := m.Called(userID, codeforces, atcoder, vjudge)
	return args.Error(0)
}

// MockAttendanceRepo реализует repository.AttendanceRepository
type MockAttendanceRepo struct {
	mock.Mock
}

func (m *MockAttendanceRepo) Create(attendance *entity.Attendance) error {
	args := m.Called(attendance)
	return args.Error(0)
}

func (m *MockAttendanceRepo) Exists(userID, eventID uint) (bool, error) {
	args := m.Called(userID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceRepo) GetUserIDsByEvent(eventID uint) (map[uint]struct{}, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]struct{}), args.Error(1)
}

func (m *MockAttendanceRepo) CountByEvent(eventID uint) (int64, error) {
	args := m.Called(eventID)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Обвязка теста: событие, подписчики, судья из httptest
// ============================================================================

type syncFixture struct {
	eventRepo      *MockEventRepo
	userRepo       *MockUserRepo
	rankListRepo   *MockRankListRepo
	solveStatRepo  *MockSolveStatRepo
	attendanceRepo *MockAttendanceRepo
	svc            *SyncService
}

func newSyncFixture(t *testing.T, judgeURL string) *syncFixture {
	t.Helper()
	f := &syncFixture{
		eventRepo:      new(MockEventRepo),
		userRepo:       new(MockUserRepo),
		rankListRepo:   new(MockRankListRepo),
		solveStatRepo:  new(MockSolveStatRepo),
		attendanceRepo: new(MockAttendanceRepo),
	}
	f.svc = NewSyncService(
		f.eventRepo, f.userRepo, f.rankListRepo, f.solveStatRepo, f.attendanceRepo,
		judge.NewCodeforcesClient(judgeURL, 5*time.Second),
		judge.NewAtcoderClient(judgeURL, 5*time.Second, nil, time.Hour),
		judge.NewVjudgeClient(judgeURL, 5*time.Second),
		NewScoreService(f.rankListRepo, f.solveStatRepo),
	)
	return f
}

// expectSubscribers настраивает цепочку событие → лидерборды → подписчики
func (f *syncFixture) expectSubscribers(event *entity.Event, rankListID uint, users []entity.User) {
	f.eventRepo.On("GetByID", event.ID).Return(event, nil)
	f.rankListRepo.On("GetRankListsForEvent", event.ID).Return([]entity.EventRankList{
		{EventID: event.ID, RankListID: rankListID, Weight: 1},
	}, nil)

	subs := make([]entity.RankListUser, 0, len(users))
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		subs = append(subs, entity.RankListUser{RankListID: rankListID, UserID: u.ID})
		ids = append(ids, u.ID)
	}
	f.rankListRepo.On("GetSubscribers", rankListID).Return(subs, nil)
	f.userRepo.On("GetByIDs", ids).Return(users, nil)
}

// disableRecompute сводит пересчёт очков после записи к пустой работе
func (f *syncFixture) disableRecompute() {
	f.rankListRepo.On("GetByID", mock.Anything).Return(&entity.RankList{ID: 1, WeightOfUpsolve: 0.25}, nil)
	f.rankListRepo.On("GetEventLinks", mock.Anything).Return([]entity.EventRankList{}, nil)
	f.solveStatRepo.On("GetByEventsAndUsers", mock.Anything, mock.Anything).Return([]entity.SolveStat{}, nil)
	f.rankListRepo.On("UpdateScore", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

// ============================================================================
// Codeforces: пакетный standings-запрос
// ============================================================================

func TestSyncEventCodeforces(t *testing.T) {
	// Судья: alice решила A в контесте, bob дорешал A после
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "contest.standings")
		assert.Equal(t, "true", r.URL.Query().Get("showUnofficial"))
		assert.Contains(t, r.URL.Query().Get("handles"), "alice")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"contest": {"id": 1234, "name": "Test Round", "startTimeSeconds": 1000, "durationSeconds": 7200},
				"rows": [
					{
						"party": {"participantType": "CONTESTANT", "members": [{"handle": "alice"}]},
						"problemResults": [{"points": 500, "rejectedAttemptCount": 1}, {"points": 0, "rejectedAttemptCount": 2}]
					},
					{
						"party": {"participantType": "PRACTICE", "members": [{"handle": "bob"}]},
						"problemResults": [{"points": 500, "rejectedAttemptCount": 0}, {"points": 0, "rejectedAttemptCount": 0}]
					}
				]
			}
		}`))
	}))
	defer server.Close()

	f := newSyncFixture(t, server.URL)
	event := &entity.Event{ID: 7, EventLink: "https://codeforces.com/contest/1234"}
	users := []entity.User{
		{ID: 1, CodeforcesHandle: "alice"},
		{ID: 2, CodeforcesHandle: "bob"},
	}
	f.expectSubscribers(event, 3, users)
	f.disableRecompute()

	var persisted []entity.SolveStat
	f.solveStatRepo.On("ReplaceAllForEvent", mock.Anything, uint(7), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).([]entity.SolveStat)
		}).Return(nil)

	var progress []SyncMessage
	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 7}, func(msg SyncMessage) {
		progress = append(progress, msg)
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, persisted, 2)

	byUser := make(map[uint]entity.SolveStat)
	for _, st := range persisted {
		byUser[st.UserID] = st
	}
	assert.Equal(t, 1, byUser[1].SolveCount)
	assert.Equal(t, 0, byUser[1].UpsolveCount)
	assert.True(t, byUser[1].IsPresent)

	assert.Equal(t, 0, byUser[2].SolveCount)
	assert.Equal(t, 1, byUser[2].UpsolveCount, "PRACTICE-ряд считается дорешиванием")
	assert.False(t, byUser[2].IsPresent)

	// Поток прогресса: по сообщению на пользователя плюс complete
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, SyncMessageComplete, last.Type)
	require.NotNil(t, last.TotalStats)
	assert.Equal(t, 2, last.TotalStats.Users)
	assert.Equal(t, 1, last.TotalStats.TotalSolves)
	assert.Equal(t, 1, last.TotalStats.TotalUpsolves)
}

func TestSyncEventCodeforcesContestNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "FAILED", "comment": "contestId: Contest with id 9999 not found"}`))
	}))
	defer server.Close()

	f := newSyncFixture(t, server.URL)
	event := &entity.Event{ID: 7, EventLink: "https://codeforces.com/contest/9999"}
	f.expectSubscribers(event, 3, []entity.User{{ID: 1, CodeforcesHandle: "alice"}})

	var progress []SyncMessage
	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 7}, func(msg SyncMessage) {
		progress = append(progress, msg)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, judge.ErrNotFound)
	assert.False(t, result.Success)

	// Ошибка уровня контеста прерывает синхронизацию ДО каких-либо записей
	f.solveStatRepo.AssertNotCalled(t, "ReplaceAllForEvent", mock.Anything, mock.Anything, mock.Anything)
	require.NotEmpty(t, progress)
	assert.Equal(t, SyncMessageError, progress[len(progress)-1].Type)
}

func TestSyncEventMalformedLink(t *testing.T) {
	f := newSyncFixture(t, "http://127.0.0.1:0")
	f.eventRepo.On("GetByID", uint(7)).Return(&entity.Event{ID: 7, EventLink: "https://example.com/whatever"}, nil)

	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 7}, nil)

	require.Error(t, err)
	assert.False(t, result.Success)
	f.solveStatRepo.AssertNotCalled(t, "ReplaceAllForEvent", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// AtCoder: последовательный по-пользовательский забор, сбои изолируются
// ============================================================================

func TestSyncEventAtcoderIsolatedFailure(t *testing.T) {
	// Контест abc300: окно [1000, 2000]. Пользователь u3 получает 404;
	// остальные решили одну задачу в окне.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "resources/contests.json"):
			_, _ = w.Write([]byte(`[{"id": "abc300", "start_epoch_second": 1000, "duration_second": 1000, "title": "ABC 300"}]`))
		case strings.Contains(r.URL.Path, "user/submissions"):
			if r.URL.Query().Get("user") == "u3" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`[{"id": 1, "epoch_second": 1500, "problem_id": "abc300_a", "contest_id": "abc300", "result": "AC"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := newSyncFixture(t, server.URL)
	event := &entity.Event{ID: 8, EventLink: "https://atcoder.jp/contests/abc300"}
	users := make([]entity.User, 0, 5)
	for i := 1; i <= 5; i++ {
		users = append(users, entity.User{ID: uint(i), AtcoderHandle: "u" + string(rune('0'+i))})
	}
	f.expectSubscribers(event, 3, users)
	f.disableRecompute()

	var persisted []entity.SolveStat
	f.solveStatRepo.On("ReplaceAllForEvent", mock.Anything, uint(8), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).([]entity.SolveStat)
		}).Return(nil)

	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 8}, nil)

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, persisted, 5, "сбой одного пользователя не сокращает пакет")

	byUser := make(map[uint]entity.SolveStat)
	for _, st := range persisted {
		byUser[st.UserID] = st
	}
	assert.Equal(t, 1, byUser[1].SolveCount)
	assert.Equal(t, 0, byUser[3].SolveCount, "у сбойного пользователя нулевые счётчики")
	assert.False(t, byUser[3].IsPresent)
	assert.Equal(t, 1, byUser[5].SolveCount)

	res, ok := result.Data["u3"]
	require.True(t, ok)
	assert.NotEmpty(t, res.Error, "сбой аннотируется в результате пользователя")
}

// ============================================================================
// VJudge: строгая посещаемость переклассифицирует решения
// ============================================================================

func TestSyncEventVjudgeStrictAttendance(t *testing.T) {
	// Контест длиной 3600000 мс; оба участника решили задачу 0 на 100-й секунде
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/contest/rank/single/555")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 555,
			"title": "Weekly Practice",
			"begin": 1700000000000,
			"length": 3600000,
			"participants": {"101": ["carol", "Carol"], "102": ["dave", "Dave"]},
			"submissions": [[101, 0, 1, 100], [102, 0, 1, 100]]
		}`))
	}))
	defer server.Close()

	f := newSyncFixture(t, server.URL)
	event := &entity.Event{ID: 9, EventLink: "https://vjudge.net/contest/555", StrictAttendance: true}
	users := []entity.User{
		{ID: 1, VjudgeHandle: "carol"},
		{ID: 2, VjudgeHandle: "dave"},
	}
	f.expectSubscribers(event, 3, users)
	f.disableRecompute()

	// Отмечена только carol
	f.attendanceRepo.On("GetUserIDsByEvent", uint(9)).Return(map[uint]struct{}{1: {}}, nil)

	var persisted []entity.SolveStat
	f.solveStatRepo.On("ReplaceAllForEvent", mock.Anything, uint(9), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).([]entity.SolveStat)
		}).Return(nil)

	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 9}, nil)

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, persisted, 2)

	byUser := make(map[uint]entity.SolveStat)
	for _, st := range persisted {
		byUser[st.UserID] = st
	}
	assert.Equal(t, 1, byUser[1].SolveCount, "отмеченный сохраняет решение в окне")
	assert.True(t, byUser[1].IsPresent)

	assert.Equal(t, 0, byUser[2].SolveCount, "неотмеченный теряет решения в окне")
	assert.Equal(t, 1, byUser[2].UpsolveCount, "решение переносится в дорешивание")
	assert.False(t, byUser[2].IsPresent)
}

// ============================================================================
// Самосинхронизация: апсерт вместо полной замены
// ============================================================================

func TestSyncEventSelfOnlyUpserts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"contest": {"id": 1234, "name": "Test Round", "startTimeSeconds": 1000, "durationSeconds": 7200},
				"rows": [{
					"party": {"participantType": "CONTESTANT", "members": [{"handle": "alice"}]},
					"problemResults": [{"points": 500, "rejectedAttemptCount": 0}]
				}]
			}
		}`))
	}))
	defer server.Close()

	f := newSyncFixture(t, server.URL)
	event := &entity.Event{ID: 7, EventLink: "https://codeforces.com/contest/1234"}
	alice := entity.User{ID: 1, CodeforcesHandle: "alice"}

	f.eventRepo.On("GetByID", uint(7)).Return(event, nil)
	f.rankListRepo.On("GetRankListsForEvent", uint(7)).Return([]entity.EventRankList{
		{EventID: 7, RankListID: 3, Weight: 1},
	}, nil)
	f.rankListRepo.On("GetSubscribers", uint(3)).Return([]entity.RankListUser{
		{RankListID: 3, UserID: 1},
	}, nil)
	f.userRepo.On("GetByIDs", []uint{1}).Return([]entity.User{alice}, nil)
	f.disableRecompute()

	f.solveStatRepo.On("UpsertOne", mock.MatchedBy(func(st *entity.SolveStat) bool {
		return st.UserID == 1 && st.EventID == 7 && st.SolveCount == 1
	})).Return(nil)

	result, err := f.svc.SyncEvent(context.Background(), SyncOptions{EventID: 7, OnlyUserID: 1}, nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	f.solveStatRepo.AssertNotCalled(t, "ReplaceAllForEvent", mock.Anything, mock.Anything, mock.Anything)
	f.solveStatRepo.AssertCalled(t, "UpsertOne", mock.Anything)
}
