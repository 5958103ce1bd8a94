package interactions

import "errors"

var (
	// ErrOperationInProgress indicates a toggle for the same subject and
	// kind is already outstanding. The call is rejected, not queued;
	// retrying shortly is safe.
	ErrOperationInProgress = errors.New("operation already in progress for this subject")

	// ErrAlreadyActive indicates activate was called on an edge that is
	// already active for this session
	ErrAlreadyActive = errors.New("interaction already active")

	// ErrNoRecord indicates deactivate was called with no known record
	// URI. This signals a hydration gap, not a user error, and the
	// remote mutation is never attempted.
	ErrNoRecord = errors.New("no record URI known for this interaction")

	// ErrInvalidCID indicates the supplied content hash is not a valid CID
	ErrInvalidCID = errors.New("invalid post CID")
)
