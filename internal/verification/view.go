package verification

import (
	"intake/internal/extraction"
	"intake/pkg/domain"
)

// FieldView is the state of one checkable field.
type FieldView struct {
	Field  domain.Field `json:"field"`
	Value  string       `json:"value"`
	Status Status       `json:"status"`
}

// View is a point-in-time copy of a session. Result is immutable and shared.
type View struct {
	SessionID    string              `json:"sessionId"`
	DocumentType domain.DocumentType `json:"documentType"`
	Result       extraction.Result   `json:"result,omitempty"`
	Fields       []FieldView         `json:"fields"`
	Error        string              `json:"error,omitempty"`
	Warning      string              `json:"warning,omitempty"`
}

// Status returns the status of f, or StatusUnverified when f is not declared.
func (v View) Status(f domain.Field) Status {
	for _, fv := range v.Fields {
		if fv.Field == f {
			return fv.Status
		}
	}
	return StatusUnverified
}

// Verified reports whether f is Verified.
func (v View) Verified(f domain.Field) bool {
	return v.Status(f) == StatusVerified
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		SessionID:    s.id,
		DocumentType: s.rules.Type,
		Result:       s.result,
		Fields:       make([]FieldView, 0, len(s.rules.Fields)),
		Error:        s.lastErr,
		Warning:      s.warning,
	}
	for _, fr := range s.rules.Fields {
		fv := FieldView{Field: fr.Field, Status: s.fields[fr.Field].status}
		if s.result != nil {
			fv.Value = s.result.Field(fr.Field)
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
