// Package service is the application layer for the intake workflow. It owns
// one verification session per document type, the canonical record, the
// reconciliation policy and the residency hand-off slot. Transport talks to
// nothing else.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"intake/internal/extraction"
	"intake/internal/handoff"
	"intake/internal/intake/metrics"
	"intake/internal/reconciliation"
	"intake/internal/record"
	"intake/internal/verification"
	"intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
	audit "intake/pkg/platform/audit"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

// Auditor records workflow decisions.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CommitOutcome is the result of a commit together with the record it left.
type CommitOutcome struct {
	Result  reconciliation.Result `json:"result"`
	Message string                `json:"message"`
	Record  record.Record         `json:"record"`
}

// Service coordinates the operator's single intake session.
type Service struct {
	sessions map[domain.DocumentType]*verification.Session
	store    *record.Store
	policy   *reconciliation.Policy
	slot     handoff.Slot
	auditor  Auditor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// New creates a service with an empty record and one session per document type.
func New(client extraction.Client, slot handoff.Slot, opts ...Option) (*Service, error) {
	s := &Service{
		sessions: make(map[domain.DocumentType]*verification.Session, len(domain.DocumentTypes)),
		store:    record.NewStore(),
		slot:     slot,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy = reconciliation.New(slot)

	sessionOpts := []verification.Option{verification.WithLogger(s.logger)}
	if s.metrics != nil {
		sessionOpts = append(sessionOpts, verification.WithObserver(s.metrics))
	}
	for _, d := range domain.DocumentTypes {
		sess, err := verification.NewSession(d, client, sessionOpts...)
		if err != nil {
			return nil, err
		}
		s.sessions[d] = sess
	}
	return s, nil
}

func (s *Service) session(docType domain.DocumentType) (*verification.Session, error) {
	sess, ok := s.sessions[docType]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported document type: "+docType.String())
	}
	return sess, nil
}

// SelectFile replaces the document's session with a fresh extraction of image.
// An extraction that finds nothing is reported as a warning on the view.
func (s *Service) SelectFile(ctx context.Context, docType domain.DocumentType, image []byte) (verification.View, error) {
	sess, err := s.session(docType)
	if err != nil {
		return verification.View{}, err
	}
	if len(image) == 0 {
		return verification.View{}, dErrors.New(dErrors.CodeBadRequest, "No or invalid file")
	}

	view, err := sess.Extract(ctx, image)
	if errors.Is(err, extraction.ErrExtractionEmpty) {
		s.logger.WarnContext(ctx, "extraction returned no fields",
			"request_id", requestcontext.RequestID(ctx),
			"document_type", docType,
		)
		return view, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "extraction failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_type", docType,
			"error", err,
		)
		return view, translate(err)
	}

	s.emit(ctx, audit.EventDocumentExtracted, view, "", "")
	return view, nil
}

// Document returns the current state of a document's session.
func (s *Service) Document(docType domain.DocumentType) (verification.View, error) {
	sess, err := s.session(docType)
	if err != nil {
		return verification.View{}, err
	}
	return sess.Snapshot(), nil
}

// VerifyField classifies one field of a document.
func (s *Service) VerifyField(ctx context.Context, docType domain.DocumentType, field domain.Field) (verification.View, error) {
	sess, err := s.session(docType)
	if err != nil {
		return verification.View{}, err
	}
	status, err := sess.Verify(ctx, field)
	if err != nil {
		s.logger.WarnContext(ctx, "field verification refused or failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_type", docType,
			"field", field,
			"error", err,
		)
		return sess.Snapshot(), translate(err)
	}
	s.logger.InfoContext(ctx, "field verified",
		"request_id", requestcontext.RequestID(ctx),
		"document_type", docType,
		"field", field,
		"status", status,
	)
	return sess.Snapshot(), nil
}

// VerifyAll classifies every eligible field of a document.
func (s *Service) VerifyAll(ctx context.Context, docType domain.DocumentType) (verification.View, error) {
	sess, err := s.session(docType)
	if err != nil {
		return verification.View{}, err
	}
	if sess.Snapshot().Result == nil {
		return sess.Snapshot(), translate(verification.ErrNoExtraction)
	}
	view, err := sess.VerifyAll(ctx)
	if err != nil {
		return view, translate(err)
	}
	return view, nil
}

// Commit reconciles the document against the record. Refusals are returned
// as outcomes, not errors, and their message is kept on the session.
func (s *Service) Commit(ctx context.Context, docType domain.DocumentType) (CommitOutcome, error) {
	sess, err := s.session(docType)
	if err != nil {
		return CommitOutcome{}, err
	}
	view := sess.Snapshot()

	res, err := s.policy.CheckAndCommit(ctx, view, s.store)
	if err != nil {
		s.logger.ErrorContext(ctx, "commit failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_type", docType,
			"error", err,
		)
		return CommitOutcome{}, translate(err)
	}

	out := CommitOutcome{Result: res, Message: res.Message(), Record: s.store.Snapshot()}
	s.metrics.IncrementCommit(docType, string(res.Kind))

	if !res.Committed() {
		sess.RecordError(out.Message)
		s.logger.InfoContext(ctx, "commit refused",
			"request_id", requestcontext.RequestID(ctx),
			"document_type", docType,
			"kind", res.Kind,
		)
		s.emit(ctx, audit.EventCommitRefused, view, string(res.Kind), out.Message)
		return out, nil
	}

	s.logger.InfoContext(ctx, "document committed",
		"request_id", requestcontext.RequestID(ctx),
		"document_type", docType,
		"deferred", res.Deferred,
	)
	s.emit(ctx, audit.EventDocumentCommitted, view, string(res.Kind), "")
	return out, nil
}

// Record returns the canonical record after consuming any pending residency
// transfer. A hand-off backend failure is logged and the record is served
// without the transfer, which stays pending.
func (s *Service) Record(ctx context.Context) record.Record {
	t, err := s.slot.Take(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return s.store.Snapshot()
	case err != nil:
		s.logger.WarnContext(ctx, "hand-off slot unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return s.store.Snapshot()
	}

	rec, applied := s.policy.ApplyTransfer(t, s.store)
	s.metrics.IncrementHandoffConsumed()
	view := verification.View{SessionID: t.SessionID, DocumentType: domain.DocumentResidency}
	if !applied {
		s.logger.WarnContext(ctx, "residency transfer discarded: candidate does not match record",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", t.SessionID,
		)
		s.emit(ctx, audit.EventHandoffConsumed, view, "discarded", "name_mismatch")
		return rec
	}
	s.emit(ctx, audit.EventHandoffConsumed, view, "applied", "")
	return rec
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, view verification.View, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Category:     action.Category(),
		Timestamp:    requestcontext.Now(ctx),
		SessionID:    view.SessionID,
		DocumentType: view.DocumentType.String(),
		Action:       string(action),
		Decision:     decision,
		Reason:       reason,
		RequestID:    requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"error", err,
		)
	}
}

// translate maps workflow and extraction failures onto domain error codes.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, verification.ErrPrerequisiteNotMet):
		return dErrors.Wrap(err, dErrors.CodePreconditionFailed, err.Error())
	case errors.Is(err, verification.ErrNoExtraction):
		return dErrors.Wrap(err, dErrors.CodePreconditionFailed, "No document has been extracted yet")
	case errors.Is(err, verification.ErrMissingValue):
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	case errors.Is(err, verification.ErrFieldNotCheckable):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, err.Error())
	case errors.Is(err, sentinel.ErrSuperseded):
		return dErrors.Wrap(err, dErrors.CodeConflict, "Superseded by a newer request")
	}

	var ee *extraction.Error
	if errors.As(err, &ee) {
		msg := fmt.Sprintf("%s: %s", ee.Endpoint, ee.Message)
		switch ee.Category {
		case extraction.CategoryUnsupportedMedia:
			return dErrors.Wrap(err, dErrors.CodeValidation, unsupportedMediaMessage)
		case extraction.CategoryEmpty:
			return dErrors.Wrap(err, dErrors.CodeUnprocessable, msg)
		case extraction.CategoryTimeout:
			return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
		default:
			return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
		}
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "hand-off storage unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
}

// unsupportedMediaMessage is shown when an upload is not PNG or JPEG.
const unsupportedMediaMessage = "Only PNG and JPEG images are accepted"
