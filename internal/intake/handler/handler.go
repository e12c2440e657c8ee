package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"intake/internal/intake/service"
	"intake/internal/platform/middleware"
	"intake/internal/record"
	"intake/internal/verification"
	"intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service

// Service defines the intake operations the handler drives.
type Service interface {
	SelectFile(ctx context.Context, docType domain.DocumentType, image []byte) (verification.View, error)
	Document(docType domain.DocumentType) (verification.View, error)
	VerifyField(ctx context.Context, docType domain.DocumentType, field domain.Field) (verification.View, error)
	VerifyAll(ctx context.Context, docType domain.DocumentType) (verification.View, error)
	Commit(ctx context.Context, docType domain.DocumentType) (service.CommitOutcome, error)
	Record(ctx context.Context) record.Record
}

// Handler serves the document and record endpoints.
type Handler struct {
	logger         *slog.Logger
	intake         Service
	maxUploadBytes int64
}

// New creates a new intake Handler.
func New(intake Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		logger:         logger,
		intake:         intake,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the intake routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/documents/{type}", func(r chi.Router) {
		r.Get("/", h.handleGetDocument)
		r.Post("/file", h.handleSelectFile)
		r.Post("/fields/{field}/verify", h.handleVerifyField)
		r.Post("/verify", h.handleVerifyAll)
		r.Post("/commit", h.handleCommit)
	})
	r.Get("/record", h.handleGetRecord)
}

func (h *Handler) documentType(w http.ResponseWriter, r *http.Request) (domain.DocumentType, bool) {
	docType, err := domain.ParseDocumentType(chi.URLParam(r, "type"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid document type",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return "", false
	}
	return docType, true
}

// handleSelectFile accepts a multipart upload in field "image" and extracts it.
func (h *Handler) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	docType, ok := h.documentType(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "File is too large"))
			return
		}
		h.logger.WarnContext(ctx, "missing upload",
			"request_id", requestID,
			"document_type", docType,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "No or invalid file"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "No or invalid file"))
		return
	}

	view, err := h.intake.SelectFile(ctx, docType, image)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docType, ok := h.documentType(w, r)
	if !ok {
		return
	}
	view, err := h.intake.Document(docType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleVerifyField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docType, ok := h.documentType(w, r)
	if !ok {
		return
	}
	field, err := domain.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.intake.VerifyField(ctx, docType, field)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleVerifyAll(w http.ResponseWriter, r *http.Request) {
	docType, ok := h.documentType(w, r)
	if !ok {
		return
	}
	view, err := h.intake.VerifyAll(r.Context(), docType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// handleCommit always answers 200 with the outcome; a refused commit is a
// normal result for the operator, not a transport error.
func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docType, ok := h.documentType(w, r)
	if !ok {
		return
	}
	out, err := h.intake.Commit(ctx, docType)
	if err != nil {
		h.logger.ErrorContext(ctx, "commit failed",
			"request_id", middleware.GetRequestID(ctx),
			"document_type", docType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.intake.Record(r.Context()))
}
