package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// Customer dashboard — GET /v1/dashboard
// ============================================================

func customerDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		session := SessionFromContext(ctx)
		stats, err := svc.CustomerOverview(ctx, session.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// ============================================================
// Admin dashboard — GET /v1/dashboard/admin
// ============================================================

func adminDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/admin")
		defer span.End()

		stats, err := svc.AdminOverview(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
