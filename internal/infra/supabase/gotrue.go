package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
)

// ============================================================
// IdentityProvider implementation — GoTrue auth API
// ============================================================

// authError is the GoTrue error envelope. Older and newer versions
// disagree on field names, so all three are tried.
type authError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *authError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// doAuth executes a request against the GoTrue API. bearer selects the
// Authorization token: the anon key for public endpoints, a user access
// token for session-scoped ones, the service-role key for admin ones.
func (c *Client) doAuth(ctx context.Context, method, path, bearer string, payload any) ([]byte, int, error) {
	var reqBody *bytes.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(jsonBody)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	u := fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: auth request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: auth non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)

		var ae authError
		_ = json.Unmarshal(body, &ae)
		msg := ae.text()
		if msg == "" {
			msg = fmt.Sprintf("auth returned status %d", resp.StatusCode)
		}

		// Provider messages go back to the caller verbatim; the
		// frontend shows them as-is.
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, resp.StatusCode, &domain.ErrUnauthorized{Message: msg}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return nil, resp.StatusCode, &domain.ErrValidation{Field: "auth", Message: msg}
		case http.StatusConflict:
			return nil, resp.StatusCode, &domain.ErrConflict{Message: msg}
		}
		return nil, resp.StatusCode, fmt.Errorf("auth returned status %d: %s", resp.StatusCode, msg)
	}

	return body, resp.StatusCode, nil
}

// SignUp registers a new identity account. metadata lands in the user's
// raw_user_meta_data and is what the profile trigger-less insert reads.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}

	body, _, err := c.doAuth(ctx, http.MethodPost, "signup", c.anonKey, payload)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &user, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.TokenSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignInWithPassword")
	defer span.End()

	payload := map[string]any{
		"email":    email,
		"password": password,
	}

	body, status, err := c.doAuth(ctx, http.MethodPost, "token?grant_type=password", c.anonKey, payload)
	if err != nil {
		// GoTrue reports bad credentials as 400, not 401.
		var ve *domain.ErrValidation
		if status == http.StatusBadRequest && errors.As(err, &ve) {
			return nil, &domain.ErrUnauthorized{Message: ve.Message}
		}
		return nil, err
	}

	var session domain.TokenSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &session, nil
}

// GetUser resolves the account behind a user access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	body, _, err := c.doAuth(ctx, http.MethodGet, "user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	_, _, err := c.doAuth(ctx, http.MethodPost, "logout", accessToken, nil)
	return err
}

// SendRecoveryEmail asks the provider to mail a password-recovery link.
// redirectTo is where the link lands after the provider confirms it.
func (c *Client) SendRecoveryEmail(ctx context.Context, email, redirectTo string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SendRecoveryEmail")
	defer span.End()

	path := "recover"
	if redirectTo != "" {
		path = fmt.Sprintf("recover?redirect_to=%s", url.QueryEscape(redirectTo))
	}

	_, _, err := c.doAuth(ctx, http.MethodPost, path, c.anonKey, map[string]any{"email": email})
	return err
}

// UpdatePassword sets a new password for the session behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePassword")
	defer span.End()

	_, _, err := c.doAuth(ctx, http.MethodPut, "user", accessToken, map[string]any{"password": newPassword})
	return err
}

// ExchangeCode trades a one-time confirmation code for a session (PKCE
// flow used by email confirmation and recovery links).
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.TokenSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ExchangeCode")
	defer span.End()
	span.SetAttributes(attribute.Int("code.len", len(code)))

	body, _, err := c.doAuth(ctx, http.MethodPost, "token?grant_type=pkce", c.anonKey, map[string]any{"auth_code": code})
	if err != nil {
		return nil, err
	}

	var session domain.TokenSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &session, nil
}

// AdminDeleteUser removes the identity account. A 404 counts as done so
// that a retried delete is idempotent.
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.AdminDeleteUser")
	defer span.End()

	_, status, err := c.doAuth(ctx, http.MethodDelete, fmt.Sprintf("admin/users/%s", userID), c.serviceRoleKey, nil)
	if err != nil && status == http.StatusNotFound {
		return nil
	}
	return err
}
