package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Rating round errors
	ErrRatingNotOpen    = errors.New("no rating round is open")
	ErrNoScoresRecorded = errors.New("no scores have been recorded")
	ErrScoreOutOfRange  = errors.New("score must be between 1 and 10")

	// Meeting errors
	ErrMeetingNotAnnounced = errors.New("next meeting is not announced yet")
	ErrMeetingFieldCount   = errors.New("meeting input has wrong field count")
	ErrMeetingFieldInvalid = errors.New("meeting input has invalid fields")

	// Archival errors
	ErrArchiveNotReady      = errors.New("voting record has no film or no average")
	ErrArchiveFieldsMissing = errors.New("voting record is missing required fields")

	// Social post errors
	ErrDraftNotFound = errors.New("no staged post found")

	// Broadcast errors
	ErrBroadcastTextEmpty = errors.New("broadcast text is empty")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsRatingNotOpen(err error) bool {
	return errors.Is(err, ErrRatingNotOpen)
}

func IsNoScoresRecorded(err error) bool {
	return errors.Is(err, ErrNoScoresRecorded)
}

func IsScoreOutOfRange(err error) bool {
	return errors.Is(err, ErrScoreOutOfRange)
}

func IsMeetingNotAnnounced(err error) bool {
	return errors.Is(err, ErrMeetingNotAnnounced)
}

func IsMeetingFieldCount(err error) bool {
	return errors.Is(err, ErrMeetingFieldCount)
}

func IsMeetingFieldInvalid(err error) bool {
	return errors.Is(err, ErrMeetingFieldInvalid)
}

func IsArchiveNotReady(err error) bool {
	return errors.Is(err, ErrArchiveNotReady)
}

func IsArchiveFieldsMissing(err error) bool {
	return errors.Is(err, ErrArchiveFieldsMissing)
}

func IsDraftNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}

func IsBroadcastTextEmpty(err error) bool {
	return errors.Is(err, ErrBroadcastTextEmpty)
}
