package milestone

import "strings"

// Approval is the interpreted outcome of a free-text approval field
type Approval int

const (
	ApprovalUnknown Approval = iota
	ApprovalConfirmed
	ApprovalRejected
)

func (a Approval) String() string {
	switch a {
	case ApprovalConfirmed:
		return "confirmed"
	case ApprovalRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var confirmedValues = map[string]bool{
	"cfm":        true,
	"confirmed":  true,
	"confirmada": true,
	"confirmado": true,
	"ok":         true,
}

// Rejections are checked first so "n/cfm" never falls through to "cfm".
var rejectedValues = map[string]bool{
	"n/cfm":         true,
	"ncfm":          true,
	"n cfm":         true,
	"n/c":           true,
	"nc":            true,
	"no cfm":        true,
	"no confirmada": true,
	"no confirmado": true,
	"not confirmed": true,
	"rechazada":     true,
	"rechazado":     true,
	"rejected":      true,
}

// normalizeApproval lowercases, collapses whitespace and folds the punctuation
// variants seen in imported spreadsheets ("N/Cfm", "N\CFM", "n / c", "O.K.").
func normalizeApproval(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(".", "", "-", " ", "_", " ", "\\", "/").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " /", "/")
	s = strings.ReplaceAll(s, "/ ", "/")
	return s
}

// InterpretApproval maps a raw approval value to a tri-state outcome.
// Anything unrecognised is ApprovalUnknown, which is absence of signal rather than an error.
func InterpretApproval(raw string) Approval {
	s := normalizeApproval(raw)
	if s == "" {
		return ApprovalUnknown
	}
	if rejectedValues[s] {
		return ApprovalRejected
	}
	if confirmedValues[s] {
		return ApprovalConfirmed
	}
	return ApprovalUnknown
}
