package verification

import "errors"

var (
	// ErrPrerequisiteNotMet is returned before any call when a field's
	// prerequisite is not Verified.
	ErrPrerequisiteNotMet = errors.New("prerequisite not verified")
	// ErrMissingValue is returned when the extraction left the field empty.
	ErrMissingValue = errors.New("no value extracted to verify")
	// ErrNoExtraction is returned when no file has been extracted yet.
	ErrNoExtraction = errors.New("no extraction result")
	// ErrFieldNotCheckable is returned for fields the document type does not declare.
	ErrFieldNotCheckable = errors.New("field is not checkable for this document type")
)
