package store

import (
	"errors"
	"fmt"

	"admod-bot/internal/models"
)

// ErrBusy is returned when a moderation action is requested for an ad
// that already has one in flight. Callers ignore it silently.
var ErrBusy = errors.New("moderation action already in flight for this ad")

// ErrStale is returned when a completed fetch was superseded by a
// newer one and its result was dropped. Callers ignore it silently.
var ErrStale = errors.New("fetch result superseded by a newer request")

// AlreadyInStatusError is the client-side guard against re-applying a
// decision the ad already carries. No request is issued.
type AlreadyInStatusError struct {
	ID     string
	Status models.AdStatus
}

func (e *AlreadyInStatusError) Error() string {
	return fmt.Sprintf("ad %s is already in status %q", e.ID, e.Status)
}

// IsAlreadyInStatus reports whether err is the local terminal-status
// guard.
func IsAlreadyInStatus(err error) bool {
	var target *AlreadyInStatusError
	return errors.As(err, &target)
}
