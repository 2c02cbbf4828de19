package models

// Status is the lifecycle state shared by all request kinds. Not every kind
// uses every value; the per-kind engine code owns the allowed transitions.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusPending           Status = "PENDING"
	StatusOldDivisionReview Status = "OLD_DIVISION_REVIEW"
	StatusNewDivisionReview Status = "NEW_DIVISION_REVIEW"
	StatusAccepted          Status = "ACCEPTED"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
	StatusCancelled         Status = "CANCELLED"
)

// Terminal reports whether no further review action may touch the request.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Display returns the user-facing emoji and text for a status.
func (s Status) Display() (emoji, text string) {
	switch s {
	case StatusDraft:
		return "📝", "Черновик"
	case StatusPending:
		return "🟡", "На рассмотрении"
	case StatusOldDivisionReview:
		return "🟡", "Рассмотрение текущим подразделением"
	case StatusNewDivisionReview:
		return "🟠", "Рассмотрение новым подразделением"
	case StatusAccepted:
		return "🟠", "Принято, ожидает звания"
	case StatusApproved:
		return "✅", "Одобрено"
	case StatusRejected:
		return "❌", "Отклонено"
	case StatusCancelled:
		return "🚫", "Отменено"
	}
	return "❔", string(s)
}

// Color returns the embed colour used when rendering the status.
func (s Status) Color() int {
	switch s {
	case StatusApproved:
		return 0x57F287
	case StatusRejected, StatusCancelled:
		return 0xED4245
	case StatusNewDivisionReview, StatusAccepted:
		return 0xE67E22
	default:
		return 0xF1C40F
	}
}
