package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ulysses-club/odissea/config"
	"github.com/ulysses-club/odissea/models"
)

// MirrorError is a typed remote-mirror failure carrying the attempt count
// and the last underlying error, plus guidance for the common status classes.
type MirrorError struct {
	Target     string
	Attempts   int
	StatusCode int
	Guidance   string
	Err        error
}

func (e *MirrorError) Error() string {
	msg := fmt.Sprintf("%s mirror failed after %d attempt(s): %v", e.Target, e.Attempts, e.Err)
	if e.Guidance != "" {
		msg += " — " + e.Guidance
	}
	return msg
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

// GitHubClient pushes full document replacements to a repository through the
// contents API. Writes use the read-version-token → write-with-token
// protocol so a concurrent edit is never blindly overwritten.
type GitHubClient struct {
	BaseURL     string
	Token       string
	Owner       string
	Repo        string
	Branch      string
	HistoryPath string
	MeetingPath string
	HTTPClient  *http.Client
	Timeout     time.Duration
	RetryCount  int
	RetryDelay  time.Duration
}

// NewGitHubClient creates a contents-API client from configuration
func NewGitHubClient(cfg config.GitHubConfig) *GitHubClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.RetryCount
	if retries < 1 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &GitHubClient{
		BaseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		Token:       cfg.Token,
		Owner:       cfg.Owner,
		Repo:        cfg.Repo,
		Branch:      cfg.Branch,
		HistoryPath: cfg.HistoryPath,
		MeetingPath: cfg.MeetingPath,
		HTTPClient:  &http.Client{Timeout: timeout},
		Timeout:     timeout,
		RetryCount:  retries,
		RetryDelay:  delay,
	}
}

type githubContentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type githubPutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// PublishHistory replaces the mirrored history file with the full entry list
func (c *GitHubClient) PublishHistory(ctx context.Context, entries []models.HistoryEntry) error {
	return c.UploadJSON(ctx, c.HistoryPath, "Update films history", entries)
}

// PublishMeeting replaces the mirrored upcoming-meeting file
func (c *GitHubClient) PublishMeeting(ctx context.Context, m models.Meeting) error {
	return c.UploadJSON(ctx, c.MeetingPath, "Update next meeting", m)
}

// UploadJSON marshals v and writes it as a full file replacement, retrying
// transient failures with linearly growing backoff. The version token is
// re-read on every attempt so a retry cannot race itself stale.
func (c *GitHubClient) UploadJSON(ctx context.Context, path, message string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= c.RetryCount; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &MirrorError{
					Target:     "github",
					Attempts:   attempt - 1,
					StatusCode: lastStatus,
					Guidance:   statusGuidance(lastStatus),
					Err:        ctx.Err(),
				}
			case <-time.After(c.RetryDelay * time.Duration(attempt-1)):
			}
		}

		sha, status, err := c.getFileSHA(ctx, path)
		if err != nil {
			lastErr, lastStatus = err, status
			continue
		}

		status, err = c.putFile(ctx, path, message, data, sha)
		if err != nil {
			lastErr, lastStatus = err, status
			continue
		}
		return nil
	}

	return &MirrorError{
		Target:     "github",
		Attempts:   c.RetryCount,
		StatusCode: lastStatus,
		Guidance:   statusGuidance(lastStatus),
		Err:        lastErr,
	}
}

// getFileSHA returns the current version token for path. A 404 means the
// file does not exist yet and is not an error: the caller writes without a
// token and the API creates the file. Any other failure propagates so no
// blind overwrite can happen.
func (c *GitHubClient) getFileSHA(ctx context.Context, path string) (sha string, status int, err error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.BaseURL, c.Owner, c.Repo, path, c.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out githubContentsResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", resp.StatusCode, fmt.Errorf("failed to decode contents response for %s: %w", path, err)
		}
		return out.SHA, resp.StatusCode, nil
	case http.StatusNotFound:
		return "", resp.StatusCode, nil
	default:
		return "", resp.StatusCode, httpStatusError("GET", path, resp)
	}
}

func (c *GitHubClient) putFile(ctx context.Context, path, message string, content []byte, sha string) (int, error) {
	body, err := json.Marshal(githubPutRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.Branch,
	})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.BaseURL, c.Owner, c.Repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(string(body)))
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, httpStatusError("PUT", path, resp)
	}
	return resp.StatusCode, nil
}

func (c *GitHubClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func httpStatusError(method, path string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func statusGuidance(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "check that the access token is valid and not expired"
	case http.StatusForbidden:
		return "check that the token has write access to the repository"
	case http.StatusNotFound:
		return "check the owner, repository and branch names"
	default:
		return ""
	}
}
