package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ulysses-club/odissea/config"
)

// VKError is a structured social-network API failure
type VKError struct {
	Code    int
	Message string
}

func (e *VKError) Error() string {
	return fmt.Sprintf("vk: %s (%d)", e.Message, e.Code)
}

// VKClient publishes posts to the club's group wall
type VKClient struct {
	BaseURL     string
	AccessToken string
	OwnerID     int64
	Version     string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// NewVKClient creates a wall-post client from configuration
func NewVKClient(cfg config.VKConfig) *VKClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &VKClient{
		BaseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		AccessToken: cfg.AccessToken,
		OwnerID:     cfg.OwnerID,
		Version:     cfg.APIVersion,
		HTTPClient:  &http.Client{Timeout: timeout},
		Timeout:     timeout,
	}
}

type vkWallPostResponse struct {
	Response *struct {
		PostID int64 `json:"post_id"`
	} `json:"response"`
	Error *struct {
		ErrorCode int    `json:"error_code"`
		ErrorMsg  string `json:"error_msg"`
	} `json:"error"`
}

// WallPost publishes a message on the group wall and returns the post id
func (c *VKClient) WallPost(ctx context.Context, message string, attachments []string) (int64, error) {
	form := url.Values{}
	form.Set("owner_id", strconv.FormatInt(c.OwnerID, 10))
	form.Set("from_group", "1")
	form.Set("message", message)
	if len(attachments) > 0 {
		form.Set("attachments", strings.Join(attachments, ","))
	}
	form.Set("access_token", c.AccessToken)
	form.Set("v", c.Version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wall.post", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("failed to create wall.post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call wall.post: %w", err)
	}
	defer resp.Body.Close()

	var out vkWallPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode wall.post response: %w", err)
	}
	if out.Error != nil {
		return 0, &VKError{Code: out.Error.ErrorCode, Message: out.Error.ErrorMsg}
	}
	if out.Response == nil {
		return 0, fmt.Errorf("wall.post: empty response")
	}
	return out.Response.PostID, nil
}
