package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bagianprojects/client-area-api/internal/domain"
)

// ============================================================
// ProfileStore implementation — profiles table via PostgREST
// ============================================================

// GetProfile fetches a profile by id. Returns (nil, nil) on no match.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	path := fmt.Sprintf("profiles?id=eq.%s&limit=1", url.QueryEscape(id))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return decodeOneProfile(body)
}

// GetProfileByEmail fetches a profile by email. Returns (nil, nil) on
// no match; the email-existence check depends on that.
func (c *Client) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileByEmail")
	defer span.End()

	path := fmt.Sprintf("profiles?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return decodeOneProfile(body)
}

// ListProfiles fetches every profile, newest first.
func (c *Client) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfiles")
	defer span.End()

	body, err := c.get(ctx, "profiles?select=*&order=created_at.desc")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return decodeProfiles(body)
}

// ListClients fetches profiles excluding staff roles, newest first.
func (c *Client) ListClients(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClients")
	defer span.End()

	body, err := c.get(ctx, "profiles?select=*&role=not.in.(admin,superadmin)&order=created_at.desc")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return decodeProfiles(body)
}

// InsertProfile creates the profile row for a new account.
func (c *Client) InsertProfile(ctx context.Context, p *domain.Profile) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertProfile")
	defer span.End()

	data := map[string]any{
		"id":        p.ID,
		"email":     p.Email,
		"full_name": p.FullName,
		"role":      string(p.Role),
	}
	if p.CompanyName != "" {
		data["company_name"] = p.CompanyName
	}
	if p.Phone != "" {
		data["phone"] = p.Phone
	}

	if _, err := c.doPost(ctx, "profiles", data); err != nil {
		return &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return nil
}

// UpdateProfile patches the given columns on one profile row.
func (c *Client) UpdateProfile(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s", url.QueryEscape(id))
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return nil
}

// DeleteProfile removes the profile row. The identity account is
// deleted separately, always after this call.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProfile")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s", url.QueryEscape(id))
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	return nil
}

func decodeOneProfile(body []byte) (*domain.Profile, error) {
	if body == nil || string(body) == "[]" {
		return nil, nil
	}
	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func decodeProfiles(body []byte) ([]domain.Profile, error) {
	if body == nil || string(body) == "[]" {
		return []domain.Profile{}, nil
	}
	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return rows, nil
}
