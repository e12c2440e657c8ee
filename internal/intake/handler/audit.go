package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"intake/internal/platform/middleware"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/httputil"
)

const defaultAuditLimit = 50

// AuditReader lists recorded workflow decisions.
type AuditReader interface {
	List(ctx context.Context, sessionID string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditHandler serves GET /audit.
type AuditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

func NewAuditHandler(reader AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit", h.handleList)
}

// handleList returns one session's events when session_id is given,
// otherwise the most recent events up to limit.
func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		events []audit.Event
		err    error
	)
	if sessionID := q.Get("session_id"); sessionID != "" {
		events, err = h.reader.List(ctx, sessionID)
	} else {
		limit := defaultAuditLimit
		if raw := q.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
				return
			}
		}
		events, err = h.reader.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
