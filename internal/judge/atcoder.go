package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/yourusername/cphub-api/internal/domain/repository"
)

const atcoderContestsCacheKey = "judge:atcoder:contests"

// ACContest — запись справочника контестов AtCoder (kenkoooo resources)
type ACContest struct {
	ID               string `json:"id"`
	StartEpochSecond int64  `json:"start_epoch_second"`
	DurationSecond   int64  `json:"duration_second"`
	Title            string `json:"title"`
}

// ACSubmission — посылка пользователя из kenkoooo AtCoder API
type ACSubmission struct {
	ID          int64   `json:"id"`
	EpochSecond int64   `json:"epoch_second"`
	ProblemID   string  `json:"problem_id"`
	ContestID   string  `json:"contest_id"`
	UserID      string  `json:"user_id"`
	Result      string  `json:"result"`
	Point       float64 `json:"point"`
}

// AtcoderClient ходит в kenkoooo AtCoder API.
// Справочник контестов кешируется в Redis с коротким TTL по явному ключу —
// кеш принадлежит вызывающей стороне, а не глобальному состоянию модуля.
type AtcoderClient struct {
	apiBase    string
	httpClient *http.Client
	cache      repository.CacheRepository
	listTTL    time.Duration
}

// NewAtcoderClient создает клиента AtCoder
func NewAtcoderClient(apiBase string, timeout time.Duration, cache repository.CacheRepository, listTTL time.Duration) *AtcoderClient {
	if apiBase == "" {
		apiBase = "https://kenkoooo.com/atcoder"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if listTTL <= 0 {
		listTTL = time.Hour
	}
	return &AtcoderClient{
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		listTTL:    listTTL,
	}
}

// GetContest возвращает метаданные контеста по ID.
// Отсутствие контеста в справочнике — терминальная ошибка, НЕ повторяется:
// ретраи здесь только маскировали бы опечатку в ссылке события.
func (c *AtcoderClient) GetContest(ctx context.Context, contestID string) (*ACContest, error) {
	contests, err := c.contestList(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		if contests[i].ID == contestID {
			return &contests[i], nil
		}
	}
	return nil, fmt.Errorf("%w: atcoder contest %q", ErrNotFound, contestID)
}

// FetchUserSubmissions возвращает посылки пользователя начиная с fromSecond
// (время старта контеста). До 3 попыток с линейным бэкоффом 1s/2s/3s.
func (c *AtcoderClient) FetchUserSubmissions(ctx context.Context, atcoderUser string, fromSecond int64) ([]ACSubmission, error) {
	atcoderUser = strings.TrimSpace(atcoderUser)
	if atcoderUser == "" {
		return nil, ErrNoEligibleUsers
	}

	params := url.Values{}
	params.Set("user", atcoderUser)
	params.Set("from_second", fmt.Sprintf("%d", fromSecond))
	reqURL := fmt.Sprintf("%s/atcoder-api/v3/user/submissions?%s", c.apiBase, params.Encode())

	var submissions []ACSubmission
	err := c.fetchWithRetry(ctx, reqURL, &submissions)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// contestList возвращает справочник контестов, по возможности из кеша
func (c *AtcoderClient) contestList(ctx context.Context) ([]ACContest, error) {
	var contests []ACContest
	if c.cache != nil {
		if err := c.cache.GetJSON(atcoderContestsCacheKey, &contests); err == nil && len(contests) > 0 {
			return contests, nil
		}
	}

	reqURL := fmt.Sprintf("%s/resources/contests.json", c.apiBase)
	if err := c.fetchWithRetry(ctx, reqURL, &contests); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(atcoderContestsCacheKey, contests, c.listTTL); err != nil {
			// Кеш — оптимизация; его недоступность не валит синхронизацию
			log.Printf("[AtcoderClient] Не удалось закешировать список контестов: %v", err)
		}
	}
	log.Printf("[AtcoderClient] Загружен справочник контестов AtCoder: %d записей", len(contests))
	return contests, nil
}

// fetchWithRetry выполняет GET с JSON-декодированием и ретраями на ErrTransient
func (c *AtcoderClient) fetchWithRetry(ctx context.Context, reqURL string, dest interface{}) error {
	return retry.Do(
		func() error {
			return c.fetchOnce(ctx, reqURL, dest)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrTransient)
		}),
		// Линейный бэкофф: 1s после первой неудачи, 2s после второй
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return time.Duration(n+1) * time.Second
		}),
		retry.LastErrorOnly(true),
	)
}

func (c *AtcoderClient) fetchOnce(ctx context.Context, reqURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, reqURL)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: atcoder api returned %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: atcoder api returned %d", ErrMalformedResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
