// Package service — ProjectService owns project CRUD.
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var projectTracer = otel.Tracer("service/project")

// validProjectStatuses is the closed set accepted on writes. Reads
// tolerate anything the store holds.
var validProjectStatuses = map[string]bool{
	domain.ProjectStatusDraft:      true,
	domain.ProjectStatusInProgress: true,
	domain.ProjectStatusCompleted:  true,
}

// ProjectService orchestrates project operations. Staff see every
// project; customers only their own.
type ProjectService struct {
	projects port.ProjectStore
	logger   *zap.Logger
}

// NewProjectService creates a project service.
func NewProjectService(projects port.ProjectStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, logger: logger}
}

// List returns projects scoped to the caller's role.
func (s *ProjectService) List(ctx context.Context, session *domain.Session) ([]domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.List")
	defer span.End()

	if session.IsAdmin {
		return s.projects.ListProjects(ctx)
	}
	return s.projects.ListProjectsByClient(ctx, session.UserID)
}

// Create inserts a new project. Status defaults to draft.
func (s *ProjectService) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Create")
	defer span.End()

	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "project name is required"}
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return nil, &domain.ErrValidation{Field: "client_id", Message: "client is required"}
	}
	if p.Status == "" {
		p.Status = domain.ProjectStatusDraft
	}
	if !validProjectStatuses[p.Status] {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown project status"}
	}

	if err := s.projects.InsertProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("client_id", p.ClientID),
	)
	return p, nil
}

// Update patches a project's mutable fields.
func (s *ProjectService) Update(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid project id"}
	}
	if status, ok := updates["status"].(string); ok && !validProjectStatuses[status] {
		return &domain.ErrValidation{Field: "status", Message: "unknown project status"}
	}
	return s.projects.UpdateProject(ctx, id, updates)
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid project id"}
	}
	return s.projects.DeleteProject(ctx, id)
}
