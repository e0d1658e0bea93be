package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/clipfeed/clipfeed/internal/model"
)

const maxRemoteBody = 1 << 20

// RemoteIdentity forwards identity calls to another service exposing the
// same /auth routes.
type RemoteIdentity struct {
	baseURL string
	client  *http.Client
}

func NewRemoteIdentity(baseURL string, client *http.Client) *RemoteIdentity {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteIdentity{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (r *RemoteIdentity) Register(ctx context.Context, username, password, displayName string) (*AuthResult, error) {
	body := map[string]string{
		"username":    username,
		"password":    password,
		"displayName": displayName,
	}

	res, err := r.do(ctx, http.MethodPost, "/auth/register", "", body)
	if err != nil {
		return nil, err
	}
	return authResult(res)
}

func (r *RemoteIdentity) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	res, err := r.do(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return authResult(res)
}

func (r *RemoteIdentity) BanStatus(ctx context.Context, code string) (bool, error) {
	res, err := r.do(ctx, http.MethodGet, "/auth/ban-status/"+url.PathEscape(code), "", nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Get("banned").Bool(), nil
}

func (r *RemoteIdentity) User(ctx context.Context, username string) (*model.UserSummary, error) {
	res, err := r.do(ctx, http.MethodGet, "/auth/get-user/"+url.PathEscape(username), "", nil)
	if err != nil {
		return nil, err
	}
	return userSummary(res)
}

func (r *RemoteIdentity) VerifyToken(ctx context.Context, token string) (*model.UserSummary, error) {
	res, err := r.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}
	return userSummary(res)
}

func (r *RemoteIdentity) do(ctx context.Context, method, path, token string, payload any) (gjson.Result, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Error("identity service request failed", "method", method, "path", path, "error", err)
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if !gjson.ValidBytes(data) {
			return gjson.Result{}, fmt.Errorf("%w: invalid response body", ErrIdentityUnavailable)
		}
		return gjson.ParseBytes(data), nil
	}

	return gjson.Result{}, remoteError(resp.StatusCode, data)
}

// remoteError maps a remote status back onto the local error set, keeping
// the remote message where one was sent.
func remoteError(status int, data []byte) error {
	var sentinel error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrValidation
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrBanned
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrAlreadyExists
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		slog.Error("identity service error", "status", status)
		return fmt.Errorf("%w: status %d", ErrIdentityUnavailable, status)
	}

	msg := gjson.GetBytes(data, "error").String()
	if msg == "" {
		msg = gjson.GetBytes(data, "message").String()
	}
	if msg == "" || sentinel != ErrValidation {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

func authResult(res gjson.Result) (*AuthResult, error) {
	token := res.Get("token").String()
	if token == "" {
		return nil, fmt.Errorf("%w: response has no token", ErrIdentityUnavailable)
	}
	user, err := userSummary(res)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *user}, nil
}

func userSummary(res gjson.Result) (*model.UserSummary, error) {
	u := res.Get("user")
	if !u.IsObject() {
		return nil, fmt.Errorf("%w: response has no user", ErrIdentityUnavailable)
	}

	var summary model.UserSummary
	err := json.Unmarshal([]byte(u.Raw), &summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if summary.DisplayName == "" {
		summary.DisplayName = summary.Username
	}
	return &summary, nil
}
