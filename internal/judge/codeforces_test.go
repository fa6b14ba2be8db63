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

func TestFetchStandings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contest.standings", r.URL.Path)
		assert.Equal(t, "1234", r.URL.Query().Get("contestId"))
		assert.Equal(t, "alice;bob", r.URL.Query().Get("handles"))
		assert.Equal(t, "true", r.URL.Query().Get("showUnofficial"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"contest": {"id": 1234, "name": "Round", "startTimeSeconds": 1000, "durationSeconds": 7200},
				"rows": [{
					"party": {"participantType": "CONTESTANT", "members": [{"handle": "alice"}]},
					"problemResults": [{"points": 500}]
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewCodeforcesClient(server.URL, 5*time.Second)
	st, err := client.FetchStandings(context.Background(), "1234", []string{"alice", "bob", "", "Alice"})

	require.NoError(t, err)
	assert.Equal(t, int64(1234), st.Contest.ID)
	require.Len(t, st.Rows, 1)
	assert.Equal(t, "alice", st.Rows[0].Party.Members[0].Handle)
}

func TestFetchStandingsEmptyHandles(t *testing.T) {
	client := NewCodeforcesClient("http://127.0.0.1:0", time.Second)
	_, err := client.FetchStandings(context.Background(), "1234", []string{"", "  "})
	assert.ErrorIs(t, err, ErrNoEligibleUsers)
}

func TestFetchStandingsTransientOn5xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewCodeforcesClient(server.URL, time.Second)
	_, err := client.FetchStandings(context.Background(), "1234", []string{"alice"})
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClassifyCodeforcesComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		wantErr error
	}{
		{
			name:    "invalid handle is actionable not-found",
			comment: "handles: User with handle ghost not found",
			wantErr: ErrNotFound,
		},
		{
			name:    "missing contest",
			comment: "contestId: Contest with id 99999 not found",
			wantErr: ErrNotFound,
		},
		{
			name:    "rate limit is transient",
			comment: "Call limit exceeded",
			wantErr: ErrTransient,
		},
		{
			name:    "maintenance is transient",
			comment: "Codeforces is temporarily unavailable.",
			wantErr: ErrTransient,
		},
		{
			name:    "unknown comment is malformed",
			comment: "something unexpected",
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyCodeforcesComment(tt.comment), tt.wantErr)
		})
	}
}

func TestDedupeHandles(t *testing.T) {
	got := dedupeHandles([]string{"alice", " alice ", "Bob", "", "ALICE", "carol"})
	assert.Equal(t, []string{"alice", "Bob", "carol"}, got)
}
