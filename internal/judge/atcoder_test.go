package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache — кеш в памяти для тестов клиента
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Set(key string, value interface{}, _ time.Duration) error {
	c.data[key] = []byte(fmt.Sprintf("%v", value))
	return nil
}

func (c *fakeCache) Get(key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found", key)
	}
	return string(v), nil
}

func (c *fakeCache) Delete(key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(key string) (bool, error) {
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) SetJSON(key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) GetJSON(key string, dest interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	return json.Unmarshal(b, dest)
}

const contestsJSON = `[
	{"id": "abc300", "start_epoch_second": 1000, "duration_second": 6000, "title": "ABC 300"},
	{"id": "agc001", "start_epoch_second": 2000, "duration_second": 7200, "title": "AGC 001"}
]`

func TestGetContest(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/resources/contests.json", r.URL.Path)
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(contestsJSON))
	}))
	defer server.Close()

	cache := newFakeCache()
	client := NewAtcoderClient(server.URL, 5*time.Second, cache, time.Hour)

	contest, err := client.GetContest(context.Background(), "abc300")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), contest.StartEpochSecond)
	assert.Equal(t, int64(6000), contest.DurationSecond)

	// Повторный запрос обслуживается из кеша
	_, err = client.GetContest(context.Background(), "agc001")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "справочник загружается один раз")
}

func TestGetContestUnknownIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contestsJSON))
	}))
	defer server.Close()

	client := NewAtcoderClient(server.URL, 5*time.Second, nil, time.Hour)
	_, err := client.GetContest(context.Background(), "abc999")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchUserSubmissionsRetriesTransient(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "epoch_second": 1500, "problem_id": "abc300_a", "contest_id": "abc300", "result": "AC"}]`))
	}))
	defer server.Close()

	client := NewAtcoderClient(server.URL, 5*time.Second, nil, time.Hour)
	subs, err := client.FetchUserSubmissions(context.Background(), "tourist", 1000)

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "AC", subs[0].Result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "одна повторная попытка после 5xx")
}

func TestFetchUserSubmissionsNotFoundIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewAtcoderClient(server.URL, 5*time.Second, nil, time.Hour)
	_, err := client.FetchUserSubmissions(context.Background(), "ghost", 1000)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "терминальные ошибки не повторяются")
}

func TestFetchUserSubmissionsEmptyHandle(t *testing.T) {
	client := NewAtcoderClient("http://127.0.0.1:0", time.Second, nil, time.Hour)
	_, err := client.FetchUserSubmissions(context.Background(), "  ", 0)
	assert.ErrorIs(t, err, ErrNoEligibleUsers)
}
