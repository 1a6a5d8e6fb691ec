package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the Instagram Graph API. The base URL is injectable so
// tests can point it at a local server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type profilePayload struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type mediaPayload struct {
	Data []struct {
		ID        string `json:"id"`
		MediaType string `json:"media_type"`
		MediaURL  string `json:"media_url"`
		Caption   string `json:"caption"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

type commentsPayload struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
		From      struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
	} `json:"data"`
}

func (c *Client) GetProfile(ctx context.Context, accessToken, instagramUserID string) (ports.Profile, error) {
	query := url.Values{}
	query.Set("fields", "id,username,profile_picture_url")
	query.Set("access_token", accessToken)

	var payload profilePayload
	if err := c.get(ctx, "/"+url.PathEscape(instagramUserID), query, &payload); err != nil {
		return ports.Profile{}, err
	}
	return ports.Profile{
		ID:                payload.ID,
		Username:          payload.Username,
		ProfilePictureURL: payload.ProfilePictureURL,
	}, nil
}

func (c *Client) GetMedia(ctx context.Context, accessToken, instagramUserID string, limit int) ([]ports.Media, error) {
	query := url.Values{}
	query.Set("fields", "id,media_type,media_url,caption,timestamp")
	query.Set("access_token", accessToken)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var payload mediaPayload
	if err := c.get(ctx, "/"+url.PathEscape(instagramUserID)+"/media", query, &payload); err != nil {
		return nil, err
	}
	out := make([]ports.Media, 0, len(payload.Data))
	for _, item := range payload.Data {
		out = append(out, ports.Media{
			ID:        item.ID,
			MediaType: item.MediaType,
			MediaURL:  item.MediaURL,
			Caption:   item.Caption,
			Timestamp: parseGraphTime(item.Timestamp),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) GetComments(ctx context.Context, accessToken, mediaID string) ([]ports.Comment, error) {
	query := url.Values{}
	query.Set("fields", "id,text,timestamp,from")
	query.Set("access_token", accessToken)

	var payload commentsPayload
	if err := c.get(ctx, "/"+url.PathEscape(mediaID)+"/comments", query, &payload); err != nil {
		return nil, err
	}
	out := make([]ports.Comment, 0, len(payload.Data))
	for _, item := range payload.Data {
		out = append(out, ports.Comment{
			ID:        item.ID,
			Text:      item.Text,
			FromID:    item.From.ID,
			FromName:  item.From.Username,
			Timestamp: parseGraphTime(item.Timestamp),
		})
	}
	return out, nil
}

// SendDirectMessage performs exactly one send attempt. Failures come back as
// *domain.DispatchError so the engine can record the kind without parsing
// transport details; there is no retry or backoff at this layer.
func (c *Client) SendDirectMessage(ctx context.Context, accessToken, recipientID, text string) error {
	body, err := json.Marshal(map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": text},
	})
	if err != nil {
		return fmt.Errorf("encode dm payload: %w", err)
	}

	endpoint := c.baseURL + "/me/messages?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.DispatchError{Kind: domain.DispatchTransient, Reason: transportReason(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return classifyDispatchFailure(resp.StatusCode, raw)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read graph response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge graphError
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("graph api %s: %s (code %d)", path, ge.Error.Message, ge.Error.Code)
		}
		return fmt.Errorf("graph api %s: http %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}

// classifyDispatchFailure maps HTTP status and Graph error codes to the
// dispatch taxonomy. Code 190 is an expired/invalid token; 4, 17 and 613 are
// throttling; 551 is an unreachable recipient.
func classifyDispatchFailure(status int, raw []byte) *domain.DispatchError {
	var ge graphError
	_ = json.Unmarshal(raw, &ge)

	kind := domain.DispatchTransient
	switch {
	case ge.Error.Code == 190 || status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.DispatchUnauthorized
	case ge.Error.Code == 4 || ge.Error.Code == 17 || ge.Error.Code == 613 || status == http.StatusTooManyRequests:
		kind = domain.DispatchRateLimited
	case status >= 500:
		kind = domain.DispatchTransient
	case status >= 400:
		kind = domain.DispatchInvalidRecipient
	}
	return &domain.DispatchError{
		Kind:   kind,
		Status: status,
		Code:   ge.Error.Code,
		Reason: ge.Error.Message,
	}
}

func transportReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timeout"
	}
	return err.Error()
}

func parseGraphTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
