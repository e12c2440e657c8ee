package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"intake/internal/platform/middleware"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
)

// Asker answers a question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// QuestionRequest is the body of POST /qa.
type QuestionRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects an empty one.
func (r *QuestionRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return dErrors.New(dErrors.CodeBadRequest, "No question provided")
	}
	return nil
}

// AnswerResponse is the body returned by POST /qa.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// Handler serves the Q&A pass-through.
type Handler struct {
	asker  Asker
	logger *slog.Logger
}

func NewHandler(asker Asker, logger *slog.Logger) *Handler {
	return &Handler{asker: asker, logger: logger}
}

// Register registers the Q&A route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/qa", h.handleAsk)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[QuestionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	answer, err := h.asker.Ask(ctx, req.Question)
	if err != nil {
		h.logger.ErrorContext(ctx, "Q&A request failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AnswerResponse{Answer: answer})
}
