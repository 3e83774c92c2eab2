package lending

import "github.com/mrlokans/lendingdesk/internal/entities"

// Outcome tells the caller what an issue or return request did. Rejections
// are outcomes, not errors: nothing was changed and the request may be shown
// back to the user as-is.
type Outcome string

const (
	OutcomeIssued          Outcome = "issued"
	OutcomeReturned        Outcome = "returned"
	OutcomeUnavailable     Outcome = "unavailable"
	OutcomeBookNotFound    Outcome = "book_not_found"
	OutcomeMemberNotFound  Outcome = "member_not_found"
	OutcomeIssueNotFound   Outcome = "issue_not_found"
	OutcomeAlreadyReturned Outcome = "already_returned"
)

// Succeeded reports whether the outcome changed the ledger.
func (o Outcome) Succeeded() bool {
	return o == OutcomeIssued || o == OutcomeReturned
}

// NotFound reports whether the request referenced a missing record.
func (o Outcome) NotFound() bool {
	switch o {
	case OutcomeBookNotFound, OutcomeMemberNotFound, OutcomeIssueNotFound:
		return true
	}
	return false
}

// Message is a short human-readable description of the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeIssued:
		return "Book issued."
	case OutcomeReturned:
		return "Book returned."
	case OutcomeUnavailable:
		return "No copies of this book are available."
	case OutcomeBookNotFound:
		return "Book not found."
	case OutcomeMemberNotFound:
		return "Member not found."
	case OutcomeIssueNotFound:
		return "Issue record not found."
	case OutcomeAlreadyReturned:
		return "This book has already been returned."
	default:
		return string(o)
	}
}

// Result is the answer to an issue or return request. Issue is set when the
// request found or created a ledger record.
type Result struct {
	Outcome Outcome         `json:"outcome"`
	Issue   *entities.Issue `json:"issue,omitempty"`
}

func (r *Result) Succeeded() bool {
	return r != nil && r.Outcome.Succeeded()
}
