package sockbridge

import "errors"

var (
	// ErrSessionNotOpen is returned by Send and Recv once the session has
	// moved past the open state.
	ErrSessionNotOpen = errors.New("sockbridge: session not in open state")
	// ErrSessionNotFound is returned when a request references a session id
	// unknown to the handler.
	ErrSessionNotFound = errors.New("sockbridge: session not found")

	errReceiverAttached = errors.New("sockbridge: another receiver already attached")
	errSessionParse     = errors.New("sockbridge: unable to parse session id from URL")

	errPayloadExpected = errors.New("sockbridge: payload expected")
	errBrokenFraming   = errors.New("sockbridge: broken JSON encoding")
)
