package protocol

import "errors"

// Parse failures. Every error is scoped to a single message or sequence
// step; consumers match with errors.Is.
var (
	// ErrMalformed reports a buffer that is not a well-formed JSON object.
	ErrMalformed = errors.New("malformed command document")
	// ErrMissingType reports an object without a string "type" field.
	ErrMissingType = errors.New("missing message type")
	// ErrUnknownType reports a "type" outside command/sequence/config.
	ErrUnknownType = errors.New("unknown message type")
	// ErrInvalidCommand reports a command failing its kind validation or an
	// envelope missing its nested payload.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownKind reports an unrecognized command kind.
	ErrUnknownKind = errors.New("unknown command kind")
)
