package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// List — GET /v1/projects
// ============================================================

func listProjectsHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects")
		defer span.End()

		projects, err := svc.List(ctx, SessionFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	}
}

// ============================================================
// Create — POST /v1/projects
// ============================================================

func createProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects")
		defer span.End()

		var p domain.Project
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.Create(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ============================================================
// Update — PATCH /v1/projects/{id}
// ============================================================

func updateProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/projects/{id}")
		defer span.End()

		var body struct {
			Name     *string `json:"name"`
			Status   *string `json:"status"`
			Deadline *string `json:"deadline"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updates := map[string]any{}
		if body.Name != nil {
			updates["name"] = *body.Name
		}
		if body.Status != nil {
			updates["status"] = *body.Status
		}
		if body.Deadline != nil {
			updates["deadline"] = *body.Deadline
		}
		if len(updates) == 0 {
			writeError(w, http.StatusBadRequest, "nothing to update")
			return
		}

		if err := svc.Update(ctx, chi.URLParam(r, "id"), updates); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "project updated"})
	}
}

// ============================================================
// Delete — DELETE /v1/projects/{id}
// ============================================================

func deleteProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{id}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
