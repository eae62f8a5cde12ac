package live

import "errors"

// Engine errors. Handlers map these onto HTTP status codes; everything the
// engine returns wraps one of them.
var (
	// ErrNotFound covers missing sessions and progress rows.
	ErrNotFound = errors.New("not found")

	// ErrClassNotFound means the class itself does not exist.
	ErrClassNotFound = errors.New("class not found")

	// ErrWorkoutNotAssigned means the class has no workout linked to it.
	ErrWorkoutNotAssigned = errors.New("class has no workout assigned")

	// ErrInvalidState means the operation is not valid for the session's
	// current status, e.g. advancing a session that is not live.
	ErrInvalidState = errors.New("invalid session state")

	// ErrTimeUp is returned when an advance crosses the time cap; the
	// session has been auto-ended as a side effect.
	ErrTimeUp = errors.New("time cap reached")

	// ErrInvalidInput covers out-of-range step indexes, negative reps and
	// other malformed arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden means the requesting coach does not own the class.
	ErrForbidden = errors.New("not the class coach")

	// ErrNotBooked means the target user is not booked into the class.
	ErrNotBooked = errors.New("user not booked into class")
)
