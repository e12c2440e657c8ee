package verification

// Status is the verification state of one field.
//
//	Unverified -> Pending -> Verified | Invalid
//	Invalid    -> Pending
//
// Verified is left only through a session reset.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusInvalid    Status = "invalid"
)

func (s Status) String() string {
	return string(s)
}
