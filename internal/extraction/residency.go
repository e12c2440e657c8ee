package extraction

import (
	"regexp"
	"strings"
)

var uidPattern = regexp.MustCompile(`\b(\d{4}\s+\d{4}\s+\d{4})\b`)

// ParsedResidency holds the fields recovered from certificate text.
type ParsedResidency struct {
	UID           string
	CandidateName string
	MotherName    string
	Caste         string
}

// ParseResidencyText recovers certificate fields from raw OCR text. The UID
// is the first "dddd dddd dddd" group. The candidate, mother and caste are
// the three non-empty lines that follow the line holding only the UID; each
// is read only if the one before it was found.
func ParseResidencyText(text string) ParsedResidency {
	var out ParsedResidency
	m := uidPattern.FindStringSubmatch(text)
	if m == nil {
		return out
	}
	out.UID = strings.Join(strings.Fields(m[1]), " ")

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	idx := -1
	for i, l := range lines {
		if strings.Join(strings.Fields(l), " ") == out.UID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out
	}

	next := func(offset int) string {
		if idx+offset < len(lines) {
			return lines[idx+offset]
		}
		return ""
	}
	if out.CandidateName = next(1); out.CandidateName == "" {
		return out
	}
	if out.MotherName = next(2); out.MotherName == "" {
		return out
	}
	out.Caste = next(3)
	return out
}
