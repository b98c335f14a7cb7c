package domain

import "errors"

var (
	// ErrUnknownInstrument is returned for catalog lookups with an unrecognized key.
	ErrUnknownInstrument = errors.New("unknown instrument kind")
	// ErrQuestionNotFound indicates an answer for an index outside the instrument.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidAnswerValue indicates a value that is not among the question's options.
	ErrInvalidAnswerValue = errors.New("invalid answer value")
	// ErrIncompleteResponses is returned when submitting before every question is answered.
	ErrIncompleteResponses = errors.New("not all questions have been answered")
	// ErrAlreadySubmitted is returned for any change to a submitted session.
	ErrAlreadySubmitted = errors.New("assessment already submitted")
	// ErrSubmissionPending is returned while a submit call is still in flight.
	ErrSubmissionPending = errors.New("submission already in progress")
	// ErrSessionNotFound is returned when an assessment session does not exist.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrUserRequired is returned when a session is started without an identity.
	ErrUserRequired = errors.New("user identity required")
	// ErrUnauthenticated indicates a missing or invalid identity token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrDemoAccount is returned for operations the demo account may not perform.
	ErrDemoAccount = errors.New("operation not available for demo account")
	// ErrInvalidTransition is returned by the navigator for disallowed page changes.
	ErrInvalidTransition = errors.New("invalid navigation transition")
	// ErrInvalidProfile indicates sign-up data that fails validation.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrEmailTaken is returned when signing up with an email that already has a profile.
	ErrEmailTaken = errors.New("email already registered")
	// ErrProfileNotFound is returned by profile stores for unknown users.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidCredentials is returned for a failed email and password login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// IsValidationError reports whether err was caused by bad caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownInstrument) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrInvalidAnswerValue) ||
		errors.Is(err, ErrIncompleteResponses) ||
		errors.Is(err, ErrInvalidProfile)
}

// IsStateError reports whether err was caused by the current session or page state.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrSubmissionPending) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrEmailTaken)
}
