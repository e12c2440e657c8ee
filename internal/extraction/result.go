package extraction

import (
	"encoding/json"
	"strconv"
	"strings"

	"intake/pkg/domain"
)

// Result is an immutable extraction outcome. A new extraction replaces it
// wholesale.
type Result interface {
	DocumentType() domain.DocumentType
	// Field returns the trimmed value of a checkable field, or "" when the
	// document type does not carry it.
	Field(f domain.Field) string
}

// IdentityResult is produced from an identity card.
type IdentityResult struct {
	Name           string `json:"name"`
	IdentityNumber string `json:"identityNumber"`
}

func (r *IdentityResult) DocumentType() domain.DocumentType { return domain.DocumentIdentity }

func (r *IdentityResult) Field(f domain.Field) string {
	if f == domain.FieldName {
		return r.Name
	}
	return ""
}

// TaxIDResult is produced from a tax-ID card.
type TaxIDResult struct {
	ExtractedText string `json:"extractedText"`
	TaxID         string `json:"taxId"`
	Name          string `json:"name"`
	FatherName    string `json:"fatherName"`
	DateOfBirth   string `json:"dateOfBirth"`
}

func (r *TaxIDResult) DocumentType() domain.DocumentType { return domain.DocumentTaxID }

func (r *TaxIDResult) Field(f domain.Field) string {
	switch f {
	case domain.FieldName:
		return r.Name
	case domain.FieldTaxID:
		return r.TaxID
	}
	return ""
}

// TranscriptResult is produced from an academic transcript.
type TranscriptResult struct {
	ExtractedText string           `json:"extractedText"`
	Barcodes      []domain.Barcode `json:"barcodes"`
	CandidateName string           `json:"candidateName"`
	MotherName    string           `json:"motherName"`
	Subjects      []domain.Subject `json:"subjects"`
	Percentage    string           `json:"percentage"`
	Result        string           `json:"result"`
}

func (r *TranscriptResult) DocumentType() domain.DocumentType { return domain.DocumentTranscript }

func (r *TranscriptResult) Field(f domain.Field) string {
	switch f {
	case domain.FieldCandidateName:
		return r.CandidateName
	case domain.FieldMotherName:
		return r.MotherName
	}
	return ""
}

// ResidencyResult is produced from a residency certificate.
type ResidencyResult struct {
	RawText       string `json:"rawText"`
	UID           string `json:"uid"`
	CandidateName string `json:"candidateName"`
	MotherName    string `json:"motherName"`
	Caste         string `json:"caste"`
}

func (r *ResidencyResult) DocumentType() domain.DocumentType { return domain.DocumentResidency }

func (r *ResidencyResult) Field(f domain.Field) string {
	if f == domain.FieldCandidateName {
		return r.CandidateName
	}
	return ""
}

// flexString accepts a JSON string, number or null. The transcript service
// emits marks and percentages as either.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if f, err := n.Float64(); err == nil {
		*s = flexString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*s = flexString(n.String())
	return nil
}

// Wire payloads as the extraction service returns them.

type identityPayload struct {
	Name          string `json:"name"`
	AadhaarNumber string `json:"aadhaar_number"`
}

type taxIDPayload struct {
	ExtractedText string `json:"extracted_text"`
	PanNumber     string `json:"pan_number"`
	Name          string `json:"name"`
	FatherName    string `json:"father_name"`
	DOB           string `json:"dob"`
}

type transcriptPayload struct {
	ExtractedText string           `json:"extracted_text"`
	Barcodes      []domain.Barcode `json:"barcodes"`
	Structured    struct {
		CandidateName string `json:"candidate_name"`
		MotherName    string `json:"mother_name"`
		Subjects      []struct {
			Subject       string     `json:"subject"`
			MarksObtained flexString `json:"marks_obtained"`
			MaxMarks      flexString `json:"max_marks"`
		} `json:"subjects"`
		Percentage flexString `json:"percentage"`
		Result     string     `json:"result"`
	} `json:"structured_data"`
}

type residencyPayload struct {
	RawText       string `json:"raw_text"`
	UID           string `json:"uid"`
	CandidateName string `json:"candidate_name"`
	MotherName    string `json:"mother_name"`
	Caste         string `json:"caste"`
}

func (p identityPayload) toResult() *IdentityResult {
	return &IdentityResult{
		Name:           strings.TrimSpace(p.Name),
		IdentityNumber: strings.TrimSpace(p.AadhaarNumber),
	}
}

func (p taxIDPayload) toResult() *TaxIDResult {
	return &TaxIDResult{
		ExtractedText: p.ExtractedText,
		TaxID:         strings.TrimSpace(p.PanNumber),
		Name:          strings.TrimSpace(p.Name),
		FatherName:    strings.TrimSpace(p.FatherName),
		DateOfBirth:   strings.TrimSpace(p.DOB),
	}
}

func (p transcriptPayload) toResult() *TranscriptResult {
	subjects := make([]domain.Subject, 0, len(p.Structured.Subjects))
	for _, s := range p.Structured.Subjects {
		subjects = append(subjects, domain.Subject{
			Subject:  strings.TrimSpace(s.Subject),
			Obtained: string(s.MarksObtained),
			Max:      string(s.MaxMarks),
		})
	}
	return &TranscriptResult{
		ExtractedText: p.ExtractedText,
		Barcodes:      p.Barcodes,
		CandidateName: strings.TrimSpace(p.Structured.CandidateName),
		MotherName:    strings.TrimSpace(p.Structured.MotherName),
		Subjects:      subjects,
		Percentage:    string(p.Structured.Percentage),
		Result:        strings.TrimSpace(p.Structured.Result),
	}
}

// toResult fills any field the service left out by re-parsing the raw text.
func (p residencyPayload) toResult() *ResidencyResult {
	r := &ResidencyResult{
		RawText:       p.RawText,
		UID:           strings.TrimSpace(p.UID),
		CandidateName: strings.TrimSpace(p.CandidateName),
		MotherName:    strings.TrimSpace(p.MotherName),
		Caste:         strings.TrimSpace(p.Caste),
	}
	if r.UID != "" && r.CandidateName != "" && r.MotherName != "" && r.Caste != "" {
		return r
	}
	parsed := ParseResidencyText(p.RawText)
	if r.UID == "" {
		r.UID = parsed.UID
	}
	if r.CandidateName == "" {
		r.CandidateName = parsed.CandidateName
	}
	if r.MotherName == "" {
		r.MotherName = parsed.MotherName
	}
	if r.Caste == "" {
		r.Caste = parsed.Caste
	}
	return r
}
