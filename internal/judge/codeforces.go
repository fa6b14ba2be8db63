package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Типы участия в ряду таблицы результатов Codeforces
const (
	CFParticipantContestant      = "CONTESTANT"
	CFParticipantOutOfCompetiton = "OUT_OF_COMPETITION"
	CFParticipantPractice        = "PRACTICE"
	CFParticipantVirtual         = "VIRTUAL"
)

// CFContest — метаданные контеста из ответа contest.standings
type CFContest struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	StartTimeSeconds int64  `json:"startTimeSeconds"`
	DurationSeconds  int64  `json:"durationSeconds"`
}

// CFMember — участник команды/одиночка в party
type CFMember struct {
	Handle string `json:"handle"`
}

// CFParty описывает, кто и в каком качестве участвовал
type CFParty struct {
	ParticipantType string     `json:"participantType"`
	Members         []CFMember `json:"members"`
}

// CFProblemResult — результат по одной задаче в ряду standings
type CFProblemResult struct {
	Points                    float64 `json:"points"`
	RejectedAttemptCount      int     `json:"rejectedAttemptCount"`
	BestSubmissionTimeSeconds *int64  `json:"bestSubmissionTimeSeconds,omitempty"`
}

// CFRanklistRow — один ряд таблицы результатов
type CFRanklistRow struct {
	Party          CFParty           `json:"party"`
	ProblemResults []CFProblemResult `json:"problemResults"`
}

// CFStandings — полезная часть ответа contest.standings
type CFStandings struct {
	Contest CFContest       `json:"contest"`
	Rows    []CFRanklistRow `json:"rows"`
}

type cfEnvelope struct {
	Status  string       `json:"status"`
	Comment string       `json:"comment"`
	Result  *CFStandings `json:"result"`
}

// CodeforcesClient ходит в публичное API Codeforces
type CodeforcesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCodeforcesClient создает клиента Codeforces
func NewCodeforcesClient(baseURL string, timeout time.Duration) *CodeforcesClient {
	if baseURL == "" {
		baseURL = "https://codeforces.com/api"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CodeforcesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchStandings запрашивает contest.standings для контеста и набора хэндлов.
// Хэндлы дедуплицируются и очищаются от пустых; Codeforces принимает их
// одной строкой через точку с запятой. showUnofficial=true нужен, чтобы
// получить и PRACTICE-ряды (по ним детектируется дорешивание).
func (c *CodeforcesClient) FetchStandings(ctx context.Context, contestID string, handles []string) (*CFStandings, error) {
	unique := dedupeHandles(handles)
	if len(unique) == 0 {
		return nil, ErrNoEligibleUsers
	}

	params := url.Values{}
	params.Set("contestId", contestID)
	params.Set("handles", strings.Join(unique, ";"))
	params.Set("showUnofficial", "true")

	reqURL := fmt.Sprintf("%s/contest.standings?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: codeforces returned %d", ErrTransient, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var envelope cfEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if envelope.Status != "OK" {
		return nil, classifyCodeforcesComment(envelope.Comment)
	}
	if envelope.Result == nil {
		return nil, fmt.Errorf("%w: empty result with status OK", ErrMalformedResponse)
	}

	log.Printf("[CodeforcesClient] Контест %s: получено %d рядов standings для %d хэндлов",
		contestID, len(envelope.Result.Rows), len(unique))
	return envelope.Result, nil
}

// classifyCodeforcesComment переводит комментарий ошибки CF в таксономию.
// CF сообщает о невалидных хэндлах и несуществующих контестах текстом вида
// "handles: User with handle X not found" / "contestId: Contest with id N not found".
func classifyCodeforcesComment(comment string) error {
	lower := strings.ToLower(comment)
	switch {
	case strings.Contains(lower, "not found") && strings.Contains(lower, "handle"):
		// Часть хэндлов невалидна — это actionable: в тексте перечислены
		// конкретные хэндлы, оператор может их поправить.
		return fmt.Errorf("%w: invalid handles: %s", ErrNotFound, comment)
	case strings.Contains(lower, "not found"):
		return fmt.Errorf("%w: %s", ErrNotFound, comment)
	case strings.Contains(lower, "limit exceeded"), strings.Contains(lower, "temporarily unavailable"):
		return fmt.Errorf("%w: %s", ErrTransient, comment)
	default:
		return fmt.Errorf("%w: codeforces: %s", ErrMalformedResponse, comment)
	}
}

// dedupeHandles убирает пустые и повторяющиеся хэндлы, сохраняя порядок
func dedupeHandles(handles []string) []string {
	seen := make(map[string]struct{}, len(handles))
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}
