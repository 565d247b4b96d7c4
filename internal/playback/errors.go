package playback

import "errors"

// Control errors returned by session operations.
var (
	// ErrLoadInFlight is returned when a control operation is rejected
	// because a batch load is outstanding.
	ErrLoadInFlight = errors.New("playback: batch load in flight")

	// ErrPlaying is returned when an operation requires playback to be
	// paused or idle.
	ErrPlaying = errors.New("playback: session is playing")

	// ErrInvalidSpeed is returned for speed multipliers other than 1, 2, 4.
	ErrInvalidSpeed = errors.New("playback: invalid speed multiplier")

	// ErrNoSnapshots is returned when a session has an empty snapshot index.
	ErrNoSnapshots = errors.New("playback: snapshot index is empty")

	// ErrClosed is returned after the session has been torn down.
	ErrClosed = errors.New("playback: session closed")
)
