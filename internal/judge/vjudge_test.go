package judge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contest/rank/single/555", r.URL.Path)
		cookie, err := r.Cookie("JSESSIONID")
		require.NoError(t, err)
		assert.Equal(t, "session-token", cookie.Value)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 555,
			"title": "Weekly",
			"begin": 1700000000000,
			"length": 3600000,
			"participants": {"101": ["carol", "Carol"]},
			"submissions": [[101, 0, 1, 120]]
		}`))
	}))
	defer server.Close()

	client := NewVjudgeClient(server.URL, 5*time.Second)
	rank, err := client.FetchRank(context.Background(), "555", "session-token")

	require.NoError(t, err)
	assert.Equal(t, int64(3600000), rank.Length)
	assert.Len(t, rank.Participants, 1)
	require.Len(t, rank.Submissions, 1)
	assert.Equal(t, int64(101), rank.Submissions[0][0])
}

func TestFetchRankRedirectMeansAuthRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Закрытый контест: VJudge уводит на страницу логина
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer server.Close()

	client := NewVjudgeClient(server.URL, 5*time.Second)
	_, err := client.FetchRank(context.Background(), "555", "")

	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestFetchRankHTMLBodyMeansAuthRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Please sign in</body></html>"))
	}))
	defer server.Close()

	client := NewVjudgeClient(server.URL, 5*time.Second)
	_, err := client.FetchRank(context.Background(), "555", "stale-session")

	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestFetchRankNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewVjudgeClient(server.URL, 5*time.Second)
	_, err := client.FetchRank(context.Background(), "404404", "")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateSession(t *testing.T) {
	t.Run("valid session resolves username", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/user/update", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"username": "carol"}`))
		}))
		defer server.Close()

		client := NewVjudgeClient(server.URL, 5*time.Second)
		username, err := client.ValidateSession(context.Background(), "good-session")

		require.NoError(t, err)
		assert.Equal(t, "carol", username)
	})

	t.Run("expired session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/login", http.StatusFound)
		}))
		defer server.Close()

		client := NewVjudgeClient(server.URL, 5*time.Second)
		_, err := client.ValidateSession(context.Background(), "stale")

		assert.ErrorIs(t, err, ErrAuthRequired)
	})
}
