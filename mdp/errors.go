package mdp

import "errors"

var (
	// ErrInvalidParameter reports a solver hyperparameter outside its domain.
	// Returned before any model function is called.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyStates reports an empty state set.
	ErrEmptyStates = errors.New("state set is empty")

	// ErrEmptyActions reports an empty action set.
	ErrEmptyActions = errors.New("action set is empty")

	// ErrDuplicateState reports a state listed more than once.
	ErrDuplicateState = errors.New("duplicate state")

	// ErrDuplicateAction reports an action listed more than once.
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrMalformedModel reports transition or reward values that do not
	// describe a valid MDP (probabilities outside [0,1], rows not summing
	// to 1, non-finite rewards).
	ErrMalformedModel = errors.New("malformed model")
)
