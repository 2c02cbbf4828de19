package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

var (
	// ErrNotFound mirrors the store sentinel for missing requests/members.
	ErrNotFound = store.ErrNotFound
	// ErrAlreadyHandled means another reviewer got to the request first, or
	// the same reviewer clicked twice.
	ErrAlreadyHandled = errors.New("request already handled")
	// ErrStaticRequired means the actor's record is missing a static id and
	// the transport should prompt for it before retrying.
	ErrStaticRequired = errors.New("static id required")
	// ErrSyncFailed wraps a failed platform edit after the decision was
	// already persisted. The decision stands; roles catch up on next sync.
	ErrSyncFailed = errors.New("role sync failed")
)

// PermissionError is a denied gate; MinRank is the floor that was required
// when rank was the reason, -1 otherwise.
type PermissionError struct {
	MinRank int
	Reason  string
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("requires rank index %d or higher", e.MinRank)
}

// CooldownError is a supply request made before the rolling window expired.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %s remaining", e.Remaining)
}

// HoursMinutes formats the remainder the way the storage UI shows it,
// flooring both components.
func (e *CooldownError) HoursMinutes() (int, int) {
	secs := int(e.Remaining.Seconds())
	if secs < 0 {
		secs = 0
	}
	return secs / 3600, secs % 3600 / 60
}

// QuotaError is a denied submission over a periodic allowance.
type QuotaError struct {
	Reason string
}

func (e *QuotaError) Error() string { return e.Reason }

// ValidationError is malformed or inadmissible user input; Message is shown
// to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OpenRequestError means the member already has a request of this kind in
// flight.
type OpenRequestError struct {
	ExistingID int64
}

func (e *OpenRequestError) Error() string {
	return fmt.Sprintf("request #%d is still open", e.ExistingID)
}

// BlacklistedError is a submission from a member under an active case.
type BlacklistedError struct {
	Reason string
	EndsAt *time.Time
}

func (e *BlacklistedError) Error() string {
	return fmt.Sprintf("blacklisted: %s", e.Reason)
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
