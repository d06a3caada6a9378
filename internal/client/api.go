package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slide_to_glory/internal/domain"
)

// API talks to the REST side of the server.
type API struct {
	BaseURL string
	HTTP    *http.Client
	Token   string // bearer token after Login
}

func NewAPI(base string) *API {
	return &API{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Session struct {
	SessionID  string `json:"session_id"`
	InviteLink string `json:"invite_link"`
}

// TokenFromInvite accepts either a bare token or an invite link.
func TokenFromInvite(invite string) string {
	invite = strings.TrimSpace(invite)
	if u, err := url.Parse(invite); err == nil && u.Scheme != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		return parts[len(parts)-1]
	}
	return invite
}

func (a *API) CreateSession(ctx context.Context) (Session, error) {
	var s Session
	err := a.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &s)
	return s, err
}

func (a *API) Register(ctx context.Context, username, password, avatar string) error {
	body := map[string]string{"username": username, "password": password, "avatar": avatar}
	return a.do(ctx, http.MethodPost, "/api/v1/register", body, nil)
}

// Login stores the returned token for later authenticated calls.
func (a *API) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/v1/login", body, &resp); err != nil {
		return err
	}
	a.Token = resp.Token
	return nil
}

func (a *API) Stats(ctx context.Context, username string) (domain.Stats, error) {
	var s domain.Stats
	err := a.do(ctx, http.MethodGet, "/api/v1/stats/"+url.PathEscape(username), nil, &s)
	return s, err
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	res, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Error == "" {
			e.Error = res.Status
		}
		return fmt.Errorf("%s %s: %d %s", method, path, res.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
