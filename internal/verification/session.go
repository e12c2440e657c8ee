// Package verification holds the per-document state machine that sequences
// extraction, field classification and the commit gate.
//
// A Session never holds its mutex across a network call. Every call captures
// a session generation and a field generation before it starts; a result that
// comes back after either has moved on is discarded with sentinel.ErrSuperseded.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"intake/internal/extraction"
	"intake/pkg/domain"
	"intake/pkg/platform/sentinel"
)

// TransitionObserver is notified of every field status change.
type TransitionObserver interface {
	ObserveTransition(docType domain.DocumentType, field domain.Field, from, to Status)
}

type fieldState struct {
	status     Status
	generation uint64
	cancel     context.CancelFunc
}

// Session is the verification state of one document type.
type Session struct {
	rules    DocumentRules
	client   extraction.Client
	logger   *slog.Logger
	observer TransitionObserver

	mu            sync.Mutex
	id            string
	generation    uint64
	extractCancel context.CancelFunc
	result        extraction.Result
	fields        map[domain.Field]*fieldState
	lastErr       string
	warning       string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver reports status transitions.
func WithObserver(o TransitionObserver) Option {
	return func(s *Session) { s.observer = o }
}

// NewSession creates an empty session for docType.
func NewSession(docType domain.DocumentType, client extraction.Client, opts ...Option) (*Session, error) {
	rules, ok := RulesFor(docType)
	if !ok {
		return nil, fmt.Errorf("no verification rules for document type %q", docType)
	}
	s := &Session{
		rules:  rules,
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()
	return s, nil
}

// DocumentType returns the document type the session verifies.
func (s *Session) DocumentType() domain.DocumentType {
	return s.rules.Type
}

// Rules returns the document rules the session enforces.
func (s *Session) Rules() DocumentRules {
	return s.rules
}

// Reset discards the result and every status, cancelling in-flight calls.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.generation++
	s.id = uuid.NewString()
	if s.extractCancel != nil {
		s.extractCancel()
		s.extractCancel = nil
	}
	s.result = nil
	s.lastErr = ""
	s.warning = ""

	prev := s.fields
	s.fields = make(map[domain.Field]*fieldState, len(s.rules.Fields))
	for _, fr := range s.rules.Fields {
		var gen uint64
		if old, ok := prev[fr.Field]; ok {
			if old.cancel != nil {
				old.cancel()
			}
			gen = old.generation
			if old.status != StatusUnverified {
				s.notify(fr.Field, old.status, StatusUnverified)
			}
		}
		s.fields[fr.Field] = &fieldState{status: StatusUnverified, generation: gen + 1}
	}
}

// Extract resets the session for a newly selected file and ingests the
// extraction result. A call that is overtaken by another Extract or Reset
// returns sentinel.ErrSuperseded and leaves the session untouched.
func (s *Session) Extract(ctx context.Context, image []byte) (View, error) {
	s.mu.Lock()
	s.resetLocked()
	gen := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.extractCancel = cancel
	s.mu.Unlock()
	defer cancel()

	result, err := s.client.Extract(ctx, s.rules.Type, image)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.InfoContext(ctx, "discarding superseded extraction",
			"document_type", s.rules.Type,
		)
		return View{}, fmt.Errorf("extraction of %s: %w", s.rules.Type, sentinel.ErrSuperseded)
	}
	s.extractCancel = nil

	if err != nil {
		if errors.Is(err, extraction.ErrExtractionEmpty) {
			s.warning = "No fields could be read from this document"
		} else {
			s.lastErr = fmt.Sprintf("Extraction failed: %v", err)
		}
		return s.viewLocked(), err
	}
	s.result = result
	return s.viewLocked(), nil
}

// Verify classifies one field. A Verified field is returned as is without a
// call. A reissued request on an Invalid or Pending field resets it and
// supersedes any call still in flight for it.
func (s *Session) Verify(ctx context.Context, field domain.Field) (Status, error) {
	s.mu.Lock()
	rule, value, err := s.eligibleLocked(field)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	st := s.fields[field]
	if st.status == StatusVerified {
		s.mu.Unlock()
		return StatusVerified, nil
	}

	restore := st.status
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	if restore == StatusPending {
		restore = StatusUnverified
	}
	if st.status != StatusUnverified {
		s.setStatusLocked(field, st, StatusUnverified)
	}
	st.generation++
	fieldGen, sessionGen := st.generation, s.generation
	callCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	s.setStatusLocked(field, st, StatusPending)
	s.mu.Unlock()
	defer cancel()

	verdict, err := s.client.Classify(callCtx, rule.Kind, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != sessionGen || s.fields[field] != st || st.generation != fieldGen {
		return "", fmt.Errorf("verification of %s: %w", field, sentinel.ErrSuperseded)
	}
	st.cancel = nil

	if err != nil {
		s.setStatusLocked(field, st, restore)
		s.lastErr = fmt.Sprintf("Verification of %s failed: %v", field, err)
		s.logger.WarnContext(ctx, "field verification failed",
			"document_type", s.rules.Type,
			"field", field,
			"error", err,
		)
		return restore, err
	}

	next := StatusInvalid
	if verdict == extraction.VerdictYes {
		next = StatusVerified
	}
	s.setStatusLocked(field, st, next)
	s.lastErr = ""
	return next, nil
}

// VerifyAll verifies every field that is not yet Verified and has a value.
// Fields without prerequisites run concurrently; dependent fields run in a
// later wave once their prerequisites are Verified. The first error is
// returned after every wave has settled.
func (s *Session) VerifyAll(ctx context.Context) (View, error) {
	attempted := make(map[domain.Field]bool, len(s.rules.Fields))
	var firstErr error

	for {
		wave := s.nextWave(attempted)
		if len(wave) == 0 {
			break
		}
		var g errgroup.Group
		for _, f := range wave {
			attempted[f] = true
			g.Go(func() error {
				_, err := s.Verify(ctx, f)
				return err
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
		if errors.Is(firstErr, sentinel.ErrSuperseded) || ctx.Err() != nil {
			break
		}
	}
	return s.Snapshot(), firstErr
}

func (s *Session) nextWave(attempted map[domain.Field]bool) []domain.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wave []domain.Field
	for _, fr := range s.rules.Fields {
		if attempted[fr.Field] || s.fields[fr.Field].status == StatusVerified {
			continue
		}
		if _, _, err := s.eligibleLocked(fr.Field); err != nil {
			continue
		}
		wave = append(wave, fr.Field)
	}
	return wave
}

// eligibleLocked checks everything that must hold before a classify call.
func (s *Session) eligibleLocked(field domain.Field) (FieldRule, string, error) {
	rule, ok := s.rules.Rule(field)
	if !ok {
		return FieldRule{}, "", fmt.Errorf("%s on %s: %w", field, s.rules.Type, ErrFieldNotCheckable)
	}
	if s.result == nil {
		return FieldRule{}, "", ErrNoExtraction
	}
	for _, req := range rule.Requires {
		if s.fields[req].status != StatusVerified {
			return FieldRule{}, "", fmt.Errorf("verify %s before %s: %w", req, field, ErrPrerequisiteNotMet)
		}
	}
	value := s.result.Field(field)
	if value == "" {
		return FieldRule{}, "", fmt.Errorf("no %s extracted to verify: %w", field, ErrMissingValue)
	}
	return rule, value, nil
}

func (s *Session) setStatusLocked(field domain.Field, st *fieldState, to Status) {
	from := st.status
	st.status = to
	if from != to {
		s.notify(field, from, to)
	}
}

func (s *Session) notify(field domain.Field, from, to Status) {
	if s.observer != nil {
		s.observer.ObserveTransition(s.rules.Type, field, from, to)
	}
}

// RecordError stores a human-readable message on the session, as shown next
// to the document after a refused commit.
func (s *Session) RecordError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}
