package app

import (
	"context"
	"sync"
	"time"

	"psych-assessment-service/internal/catalog"
	"psych-assessment-service/internal/domain"
)

// SessionState is the lifecycle position of an assessment session.
type SessionState int

const (
	StateEmpty SessionState = iota
	StateInProgress
	StateComplete
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// SubmissionSink receives scored submissions. Returning an error leaves the
// session in the complete state so submit can be retried.
type SubmissionSink interface {
	Accept(ctx context.Context, event domain.SubmissionReady) error
}

// SubmissionSinkFunc adapts a function to SubmissionSink.
type SubmissionSinkFunc func(ctx context.Context, event domain.SubmissionReady) error

func (f SubmissionSinkFunc) Accept(ctx context.Context, event domain.SubmissionReady) error {
	return f(ctx, event)
}

// Progress is a read-only view of how far a session has come.
type Progress struct {
	SessionID  string                `json:"sessionId"`
	Instrument domain.InstrumentKind `json:"instrument"`
	Answered   int                   `json:"answered"`
	Total      int                   `json:"total"`
	State      string                `json:"state"`
	Complete   bool                  `json:"complete"`
}

// Session holds the answers of one instrument administration.
type Session struct {
	id         string
	user       domain.User
	instrument catalog.Instrument
	createdAt  time.Time

	mu        sync.Mutex
	responses domain.Responses
	pending   bool
	submitted bool
	result    domain.ScoreResult
}

// NewSession starts an empty session for user. A session cannot exist without an identity.
func NewSession(id string, user domain.User, instrument catalog.Instrument) (*Session, error) {
	return NewSessionWithClock(id, user, instrument, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, user domain.User, instrument catalog.Instrument, now func() time.Time) (*Session, error) {
	if user.UID == "" {
		return nil, domain.ErrUserRequired
	}
	return &Session{
		id:         id,
		user:       user,
		instrument: instrument,
		createdAt:  now(),
		responses:  make(domain.Responses, instrument.QuestionCount()),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) User() domain.User { return s.user }

func (s *Session) Instrument() catalog.Instrument { return s.instrument }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State derives the lifecycle state from the recorded answers.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() SessionState {
	switch {
	case s.submitted:
		return StateSubmitted
	case len(s.responses) == s.instrument.QuestionCount():
		return StateComplete
	case len(s.responses) > 0:
		return StateInProgress
	}
	return StateEmpty
}

// RecordAnswer stores value for question index, overwriting any earlier answer.
func (s *Session) RecordAnswer(index, value int) error {
	if index < 0 || index >= s.instrument.QuestionCount() {
		return domain.ErrQuestionNotFound
	}
	if !s.instrument.Allows(index, value) {
		return domain.ErrInvalidAnswerValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.ErrAlreadySubmitted
	}
	s.responses[index] = value
	return nil
}

// IsComplete reports whether every question has an answer.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses) == s.instrument.QuestionCount()
}

// Responses returns a copy of the recorded answers.
func (s *Session) Responses() domain.Responses {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responses.Clone()
}

// Result returns the score of a submitted session.
func (s *Session) Result() (domain.ScoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.submitted
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked()
	return Progress{
		SessionID:  s.id,
		Instrument: s.instrument.Kind,
		Answered:   len(s.responses),
		Total:      s.instrument.QuestionCount(),
		State:      state.String(),
		Complete:   state == StateComplete || state == StateSubmitted,
	}
}

// Submit scores a complete session and hands the result to sink. The sink's
// error is returned as-is and the session stays retryable; on success the
// session becomes terminal.
func (s *Session) Submit(ctx context.Context, sink SubmissionSink) (domain.ScoreResult, error) {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return nil, domain.ErrAlreadySubmitted
	}
	if s.pending {
		s.mu.Unlock()
		return nil, domain.ErrSubmissionPending
	}
	if len(s.responses) != s.instrument.QuestionCount() {
		s.mu.Unlock()
		return nil, domain.ErrIncompleteResponses
	}
	responses := s.responses.Clone()
	s.pending = true
	s.mu.Unlock()

	scores := s.instrument.Score(responses)
	err := sink.Accept(ctx, domain.SubmissionReady{
		UserID:     s.user.UID,
		Instrument: s.instrument.Kind,
		Scores:     scores,
		Responses:  responses,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		return nil, err
	}
	s.submitted = true
	s.result = scores
	return scores, nil
}
