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
// ProjectStore implementation — projects table
// ============================================================

const projectSelect = "select=*,profiles!client_id(id,email,full_name,company_name)"

// ListProjects fetches every project with the client embedded, newest
// first.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProjects")
	defer span.End()

	path := fmt.Sprintf("projects?%s&order=created_at.desc", projectSelect)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}
	return decodeProjects(body)
}

// ListProjectsByDeadline fetches projects ordered by nearest deadline,
// the order the dashboard's upcoming list wants.
func (c *Client) ListProjectsByDeadline(ctx context.Context) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProjectsByDeadline")
	defer span.End()

	path := fmt.Sprintf("projects?%s&order=deadline.asc.nullslast", projectSelect)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}
	return decodeProjects(body)
}

// ListProjectsByClient fetches one client's projects, newest first.
func (c *Client) ListProjectsByClient(ctx context.Context, clientID string) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProjectsByClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	path := fmt.Sprintf("projects?%s&client_id=eq.%s&order=created_at.desc", projectSelect, url.QueryEscape(clientID))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}
	return decodeProjects(body)
}

// InsertProject creates a project row and backfills the generated id.
func (c *Client) InsertProject(ctx context.Context, p *domain.Project) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertProject")
	defer span.End()

	data := map[string]any{
		"name":      p.Name,
		"client_id": p.ClientID,
		"status":    p.Status,
	}
	if p.Deadline != "" {
		data["deadline"] = p.Deadline
	}

	body, err := c.doPost(ctx, "projects", data)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}

	var rows []domain.Project
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode inserted project: %w", err)
	}
	if len(rows) > 0 {
		p.ID = rows[0].ID
		p.CreatedAt = rows[0].CreatedAt
	}
	return nil
}

// UpdateProject patches the given columns on one project row.
func (c *Client) UpdateProject(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProject")
	defer span.End()

	path := fmt.Sprintf("projects?id=eq.%s", url.QueryEscape(id))
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}
	return nil
}

// DeleteProject removes a project row.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProject")
	defer span.End()

	path := fmt.Sprintf("projects?id=eq.%s", url.QueryEscape(id))
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/projects", Err: err}
	}
	return nil
}

func decodeProjects(body []byte) ([]domain.Project, error) {
	if body == nil || string(body) == "[]" {
		return []domain.Project{}, nil
	}
	var rows []domain.Project
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return rows, nil
}
