package match

import "errors"

// These never flow back through AddResult/bool — they are logged by
// AsyncEngineShell at the collaborator-misuse surfaces outside that
// vocabulary (see error.go's call sites in asyncshell.go). BAD_INPUT,
// REJECT, FOK_FAIL and friends are never errors — they are OrderStatus
// values returned inside an AddResult.
var (
	// ErrShutdown is logged when AddOrder/CancelOrder is called after
	// Stop; the shell answers with a terminal result instead of blocking
	// on a worker that has already exited.
	ErrShutdown = errors.New("match: shell is shutting down")

	// ErrRingExhausted is logged when push's busy-retry budget runs out
	// before the ring drains — the ring is being pushed into faster than
	// the worker can keep up, or the worker has stalled.
	ErrRingExhausted = errors.New("match: ring push exhausted its retry budget")

	// ErrUnknownCommand is logged if dispatch ever sees a CmdEnvelope
	// whose kind isn't one of envAdd/envCancel/envStop — defensive, since
	// every envelope in this package is constructed with a valid kind.
	ErrUnknownCommand = errors.New("match: unknown envelope kind")
)
