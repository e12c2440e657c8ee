// Package extraction wraps the external OCR and classification services.
//
// Every call is stateless. Extract turns an uploaded image into a
// document-specific Result; Classify asks the model whether a single value
// looks genuine. Transport failures surface as *Error and are never retried
// here.
package extraction

import (
	"context"
	"strings"

	"intake/pkg/domain"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Client is the port the verification workflow depends on.
type Client interface {
	Extract(ctx context.Context, docType domain.DocumentType, image []byte) (Result, error)
	Classify(ctx context.Context, kind Kind, value string) (Verdict, error)
}

// Kind selects the classification model.
type Kind string

const (
	KindName  Kind = "name"
	KindTaxID Kind = "taxId"
)

// Verdict is the classification outcome. Only VerdictYes marks a field Verified.
type Verdict string

const (
	VerdictYes Verdict = "Y"
	VerdictNo  Verdict = "N"
)

// ParseVerdict trims and upper-cases a raw model response. Anything other
// than "Y" resolves to VerdictNo.
func ParseVerdict(raw string) Verdict {
	if strings.ToUpper(strings.TrimSpace(raw)) == string(VerdictYes) {
		return VerdictYes
	}
	return VerdictNo
}
