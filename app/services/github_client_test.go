package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulysses-club/odissea/config"
	"github.com/ulysses-club/odissea/models"
)

func newTestGitHubClient(baseURL string) *GitHubClient {
	return NewGitHubClient(config.GitHubConfig{
		APIBaseURL:  baseURL,
		Token:       "test-token",
		Owner:       "ulysses-club",
		Repo:        "odissea",
		Branch:      "main",
		HistoryPath: "assets/data/films.json",
		MeetingPath: "assets/data/next-meeting.json",
		RetryCount:  3,
		RetryDelay:  time.Millisecond,
		Timeout:     time.Second,
	})
}

func TestPublishHistoryCreatesFileWithoutSHA(t *testing.T) {
	var put githubPutRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	client := newTestGitHubClient(server.URL)
	entries := []models.HistoryEntry{{Film: "Сталкер", Average: 8.0, Participants: 4}}
	require.NoError(t, client.PublishHistory(context.Background(), entries))

	// No version token on a fresh file
	assert.Empty(t, put.SHA)
	assert.Equal(t, "main", put.Branch)

	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	var uploaded []models.HistoryEntry
	require.NoError(t, json.Unmarshal(decoded, &uploaded))
	assert.Equal(t, entries, uploaded)
}

func TestPublishHistorySendsCurrentSHA(t *testing.T) {
	var put githubPutRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(githubContentsResponse{SHA: "abc123"})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := newTestGitHubClient(server.URL)
	require.NoError(t, client.PublishHistory(context.Background(), nil))
	assert.Equal(t, "abc123", put.SHA)
}

func TestUploadJSONRetriesTransientFailures(t *testing.T) {
	var gets int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets++
			if gets < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	client := newTestGitHubClient(server.URL)
	require.NoError(t, client.UploadJSON(context.Background(), "assets/data/films.json", "Update films history", []string{}))
	assert.Equal(t, 3, gets)
}

func TestUploadJSONExhaustsRetries(t *testing.T) {
	var gets int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestGitHubClient(server.URL)
	err := client.UploadJSON(context.Background(), "assets/data/films.json", "Update films history", []string{})
	require.Error(t, err)

	var mirrorErr *MirrorError
	require.True(t, errors.As(err, &mirrorErr))
	assert.Equal(t, "github", mirrorErr.Target)
	assert.Equal(t, 3, mirrorErr.Attempts)
	assert.Equal(t, http.StatusUnauthorized, mirrorErr.StatusCode)
	assert.Contains(t, mirrorErr.Guidance, "token")
	assert.Equal(t, 3, gets)
}

func TestUploadJSONReReadsSHAEachAttempt(t *testing.T) {
	// The PUT is rejected once with a conflict; the retry must fetch a fresh
	// version token instead of reusing the stale one.
	var gets, puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets++
			_ = json.NewEncoder(w).Encode(githubContentsResponse{SHA: "sha-" + string(rune('0'+gets))})
		case http.MethodPut:
			puts++
			if puts == 1 {
				w.WriteHeader(http.StatusConflict)
				return
			}
			var put githubPutRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			assert.Equal(t, "sha-2", put.SHA)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := newTestGitHubClient(server.URL)
	require.NoError(t, client.UploadJSON(context.Background(), "assets/data/films.json", "Update films history", []string{}))
	assert.Equal(t, 2, gets)
	assert.Equal(t, 2, puts)
}
