package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// VJRank — таблица результатов контеста VJudge.
// Времена в Begin/Length — миллисекунды; времена посылок — секунды
// ОТНОСИТЕЛЬНО начала контеста (не epoch).
type VJRank struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Begin  int64  `json:"begin"`
	Length int64  `json:"length"`

	// Participants: participantId -> [handle, nickname, avatar]
	Participants map[string][]string `json:"participants"`

	// Submissions: [participantId, problemIndex, accepted(0/1), relativeTimeSeconds]
	Submissions [][4]int64 `json:"submissions"`
}

// VjudgeClient ходит в VJudge. Закрытые контесты требуют сессионную куку
// (JSESSIONID), которую пользователь передаёт при запуске синхронизации.
type VjudgeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewVjudgeClient создает клиента VJudge
func NewVjudgeClient(baseURL string, timeout time.Duration) *VjudgeClient {
	if baseURL == "" {
		baseURL = "https://vjudge.net"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &VjudgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			// Редирект на страницу логина означает невалидную сессию;
			// нам важно увидеть его, а не пройти по нему.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// ValidateSession проверяет, что сессионная кука резолвится в username.
// Возвращает имя пользователя VJudge или ErrAuthRequired.
func (c *VjudgeClient) ValidateSession(ctx context.Context, session string) (string, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return "", ErrAuthRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/update", nil)
	if err != nil {
		return "", err
	}
	c.attachSession(req, session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: vjudge returned %d", ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: session rejected (%d)", ErrAuthRequired, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var profile struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		// Вместо JSON пришла страница логина — сессия не распознана
		return "", fmt.Errorf("%w: session did not resolve to a user", ErrAuthRequired)
	}
	if profile.Username == "" {
		return "", fmt.Errorf("%w: session did not resolve to a user", ErrAuthRequired)
	}

	log.Printf("[VjudgeClient] Сессия подтверждена для пользователя %s", profile.Username)
	return profile.Username, nil
}

// FetchRank запрашивает таблицу результатов контеста.
// Для закрытого контеста без валидной сессии VJudge отвечает не-JSON'ом или
// редиректом — это всплывает как ErrAuthRequired, чтобы вызывающая сторона
// запросила учётные данные, а не показывала общий сбой.
func (c *VjudgeClient) FetchRank(ctx context.Context, contestID string, session string) (*VJRank, error) {
	reqURL := fmt.Sprintf("%s/contest/rank/single/%s", c.baseURL, contestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if session != "" {
		c.attachSession(req, session)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: vjudge contest %s", ErrNotFound, contestID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		(resp.StatusCode >= 300 && resp.StatusCode < 400):
		return nil, fmt.Errorf("%w: contest %s is gated", ErrAuthRequired, contestID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: vjudge returned %d", ErrTransient, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var rank VJRank
	if err := json.Unmarshal(body, &rank); err != nil {
		if looksLikeHTML(body) {
			return nil, fmt.Errorf("%w: contest %s requires login", ErrAuthRequired, contestID)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if rank.ID == 0 {
		return nil, fmt.Errorf("%w: vjudge contest %s", ErrNotFound, contestID)
	}

	log.Printf("[VjudgeClient] Контест %s: %d участников, %d посылок",
		contestID, len(rank.Participants), len(rank.Submissions))
	return &rank, nil
}

func (c *VjudgeClient) attachSession(req *http.Request, session string) {
	req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: session})
}

func looksLikeHTML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<") || strings.Contains(trimmed, "<html")
}
