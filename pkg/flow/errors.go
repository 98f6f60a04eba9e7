package flow

import "errors"

var (
	// ErrNoFlow is returned when a turn arrives for a session with no
	// running flow instance.
	ErrNoFlow = errors.New("no active flow for session")
	// ErrNotWaiting is returned when a turn arrives while the flow is
	// mid-step rather than suspended.
	ErrNotWaiting = errors.New("flow is not waiting for input")
	// ErrInputKindMismatch means the transport delivered a typed input
	// that does not match the kind the suspended step expects. That is a
	// wiring defect, not a user error.
	ErrInputKindMismatch = errors.New("input kind does not match suspended step")
	// ErrInvalidNumber is returned by Recognize when a number-expecting
	// step receives text that does not parse as one.
	ErrInvalidNumber = errors.New("input is not a number")
	// ErrInvalidChoice is returned by Recognize when a choice-expecting
	// step receives text that is not a positive integer.
	ErrInvalidChoice = errors.New("input is not a choice number")
	// ErrInvalidToken is returned by Recognize when a token-expecting
	// step receives chat text. Tokens never arrive through the chat;
	// they come from the sign-in callback as an already typed turn.
	ErrInvalidToken = errors.New("input is not a sign-in token")
)
