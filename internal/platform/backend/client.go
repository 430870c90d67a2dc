package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/logger"
)

const (
	productionBaseURL  = "https://sound-heal-me-production.up.railway.app/api"
	developmentBaseURL = "http://localhost:3000/api"
	maxErrorBody       = 4 << 10
)

type Config struct {
	BaseURL string
	AppEnv  string
	Timeout time.Duration
	UserID  string
}

// ResolveBaseURL applies the single base-URL rule: an explicit override wins,
// otherwise the application environment picks the endpoint.
func ResolveBaseURL(appEnv, override string) string {
	if v := strings.TrimRight(strings.TrimSpace(override), "/"); v != "" {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "prod", "production":
		return productionBaseURL
	default:
		return developmentBaseURL
	}
}

// Client is a stateless adapter over the backend REST API. It never retries
// and never caches; the only state it keeps is the logged-in user id.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	userID string
}

func New(log *logger.Logger, cfg Config) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		log:        log.With("client", "BackendClient"),
		baseURL:    ResolveBaseURL(cfg.AppEnv, cfg.BaseURL),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userID:     cfg.UserID,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) SetUserID(userID string) {
	c.mu.Lock()
	c.userID = strings.TrimSpace(userID)
	c.mu.Unlock()
}

func (c *Client) requireUser() (string, error) {
	uid := c.UserID()
	if uid == "" {
		return "", apperrors.ErrNotLoggedIn
	}
	return uid, nil
}

// ---- auth ----

type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type loginResponse struct {
	User  *User `json:"user"`
	IsNew bool  `json:"isNew"`
}

// Login upserts the user by opaque id; an empty id asks the backend to mint one.
func (c *Client) Login(ctx context.Context, userID string) (User, error) {
	body := map[string]any{"userId": nil}
	if strings.TrimSpace(userID) != "" {
		body["userId"] = userID
	}
	out := loginResponse{}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return User{}, err
	}
	if out.User == nil || out.User.ID == "" {
		return User{}, &apperrors.RemoteError{Status: http.StatusOK, Message: "login response missing user"}
	}
	c.SetUserID(out.User.ID)
	return *out.User, nil
}

// ---- profile ----

func (c *Client) GetProfile(ctx context.Context) (json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	out := json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, "/profile/"+url.PathEscape(uid), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile json.RawMessage) (json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	out := json.RawMessage{}
	if err := c.do(ctx, http.MethodPut, "/profile/"+url.PathEscape(uid), profile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddXP(ctx context.Context, xp int) error {
	uid, err := c.requireUser()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/profile/"+url.PathEscape(uid)+"/xp", map[string]int{"xp": xp}, nil)
}

// ---- sessions ----

func (c *Client) GetSessions(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	path := fmt.Sprintf("/sessions/%s?limit=%d&offset=%d", url.PathEscape(uid), limit, offset)
	out := []json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSession(ctx context.Context, session json.RawMessage) (json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	out := json.RawMessage{}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(uid), session, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// ---- achievements ----

type AchievementStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Unlocked  bool   `json:"unlocked"`
	UnlockedAt any   `json:"unlockedAt"`
}

type AchievementList struct {
	Total        int                 `json:"total"`
	Unlocked     int                 `json:"unlocked"`
	Achievements []AchievementStatus `json:"achievements"`
}

type UnlockResult struct {
	Message string `json:"message"`
	XPBonus int    `json:"xpBonus"`
}

type CheckResult struct {
	Checked       int                 `json:"checked"`
	NewlyUnlocked int                 `json:"newlyUnlocked"`
	Achievements  []AchievementStatus `json:"achievements"`
}

func (c *Client) GetAchievements(ctx context.Context) (AchievementList, error) {
	uid, err := c.requireUser()
	if err != nil {
		return AchievementList{}, err
	}
	out := AchievementList{}
	if err := c.do(ctx, http.MethodGet, "/achievements/"+url.PathEscape(uid), nil, &out); err != nil {
		return AchievementList{}, err
	}
	return out, nil
}

func (c *Client) UnlockAchievement(ctx context.Context, achievementID string) (UnlockResult, error) {
	uid, err := c.requireUser()
	if err != nil {
		return UnlockResult{}, err
	}
	out := UnlockResult{}
	path := "/achievements/" + url.PathEscape(uid) + "/unlock/" + url.PathEscape(achievementID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return UnlockResult{}, err
	}
	return out, nil
}

func (c *Client) CheckAchievements(ctx context.Context) (CheckResult, error) {
	uid, err := c.requireUser()
	if err != nil {
		return CheckResult{}, err
	}
	out := CheckResult{}
	if err := c.do(ctx, http.MethodPost, "/achievements/"+url.PathEscape(uid)+"/check", nil, &out); err != nil {
		return CheckResult{}, err
	}
	return out, nil
}

// ---- analytics ----

type Streak struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

func (c *Client) GetStreak(ctx context.Context) (Streak, error) {
	uid, err := c.requireUser()
	if err != nil {
		return Streak{}, err
	}
	out := Streak{}
	if err := c.do(ctx, http.MethodGet, "/analytics/"+url.PathEscape(uid)+"/streak", nil, &out); err != nil {
		return Streak{}, err
	}
	return out, nil
}

func (c *Client) GetMoodStats(ctx context.Context) (json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	out := json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, "/analytics/"+url.PathEscape(uid)+"/mood-stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRecommendations(ctx context.Context) (json.RawMessage, error) {
	uid, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	out := json.RawMessage{}
	if err := c.do(ctx, http.MethodGet, "/analytics/"+url.PathEscape(uid)+"/recommendations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- health ----

// HealthCheck reports reachability; it never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("health check failed", "base_url", c.baseURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ---- transport ----

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var payload []byte
		switch v := in.(type) {
		case json.RawMessage:
			payload = v
		default:
			encoded, err := json.Marshal(in)
			if err != nil {
				return fmt.Errorf("encode %s %s: %w", method, path, err)
			}
			payload = encoded
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		decoded := errorBody{}
		if json.Unmarshal(raw, &decoded) == nil {
			if decoded.Error != "" {
				msg = decoded.Error
			} else if decoded.Message != "" {
				msg = decoded.Message
			}
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &apperrors.RemoteError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) {
			return &apperrors.NetworkError{Op: method + " " + path, Err: err}
		}
		return &apperrors.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
