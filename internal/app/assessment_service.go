package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psych-assessment-service/internal/catalog"
	"psych-assessment-service/internal/domain"
)

// ErrExportDisabled is returned when no exporter has been configured.
var ErrExportDisabled = errors.New("data export not configured")

// SessionRepository abstracts how live sessions are held (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// RecordStore is the persistence collaborator for submitted assessments.
// ListRecords returns records in ascending createdAt order; an empty kind
// selects every instrument. DeleteUserData reports how many records it removed.
type RecordStore interface {
	SaveRecord(ctx context.Context, record domain.AssessmentRecord) error
	ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error)
	DeleteUserData(ctx context.Context, userID string) (int, error)
}

// EventPublisher fans persisted submissions out to other consumers.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, record domain.AssessmentRecord) error
}

// Exporter writes a user's records somewhere they can be handed over.
type Exporter interface {
	Export(ctx context.Context, userID string, records []domain.AssessmentRecord) (string, error)
}

// Option configures optional collaborators of the service.
type Option func(*AssessmentService)

func WithPublisher(p EventPublisher) Option {
	return func(s *AssessmentService) { s.publisher = p }
}

func WithExporter(e Exporter) Option {
	return func(s *AssessmentService) { s.exporter = e }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AssessmentService) { s.now = now }
}

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	sessions  SessionRepository
	records   RecordStore
	publisher EventPublisher
	exporter  Exporter
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewAssessmentService(sessions SessionRepository, records RecordStore, logger *zap.Logger, opts ...Option) *AssessmentService {
	s := &AssessmentService{
		sessions: sessions,
		records:  records,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session of kind for user.
func (s *AssessmentService) Start(_ context.Context, user domain.User, kind domain.InstrumentKind) (*Session, error) {
	instrument, err := catalog.Get(kind)
	if err != nil {
		return nil, err
	}
	session, err := NewSessionWithClock(s.newID(), user, instrument, s.now)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	s.logger.Debug("assessment session started",
		zap.String("session_id", session.ID()),
		zap.String("user_id", user.UID),
		zap.String("instrument", string(kind)))
	return session, nil
}

// RecordAnswer records one answer and reports the session's progress.
func (s *AssessmentService) RecordAnswer(_ context.Context, sessionID string, questionIndex, value int) (Progress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Progress{}, domain.ErrSessionNotFound
	}
	if err := session.RecordAnswer(questionIndex, value); err != nil {
		return session.Progress(), err
	}
	return session.Progress(), nil
}

// Submit scores the session and persists the resulting record. Demo users get
// their scores back without anything being stored. The submitted session is
// kept until Discard so repeated submits report ErrAlreadySubmitted.
func (s *AssessmentService) Submit(ctx context.Context, sessionID string) (domain.AssessmentRecord, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AssessmentRecord{}, domain.ErrSessionNotFound
	}

	var record domain.AssessmentRecord
	sink := SubmissionSinkFunc(func(ctx context.Context, event domain.SubmissionReady) error {
		record = domain.AssessmentRecord{
			ID:         s.newID(),
			UserID:     event.UserID,
			Instrument: event.Instrument,
			Scores:     event.Scores,
			Responses:  event.Responses,
			CreatedAt:  s.now().UTC(),
		}
		if session.User().IsDemo {
			return nil
		}
		if err := s.records.SaveRecord(ctx, record); err != nil {
			s.logger.Warn("persisting assessment failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return err
		}
		s.publish(ctx, record)
		return nil
	})

	if _, err := session.Submit(ctx, sink); err != nil {
		return domain.AssessmentRecord{}, err
	}
	s.logger.Info("assessment submitted",
		zap.String("session_id", sessionID),
		zap.String("instrument", string(record.Instrument)),
		zap.Duration("elapsed", s.now().Sub(session.CreatedAt())),
		zap.Bool("demo", session.User().IsDemo))
	return record, nil
}

// publish is best-effort: the record is already stored.
func (s *AssessmentService) publish(ctx context.Context, record domain.AssessmentRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSubmission(ctx, record); err != nil {
		s.logger.Warn("publishing submission failed",
			zap.String("record_id", record.ID),
			zap.Error(err))
	}
}

// Discard drops a session, e.g. when the user navigates away.
func (s *AssessmentService) Discard(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// History lists the user's records for kind in ascending creation order.
func (s *AssessmentService) History(ctx context.Context, user domain.User, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	if user.UID == "" {
		return nil, domain.ErrUserRequired
	}
	if kind != "" {
		if _, err := catalog.Get(kind); err != nil {
			return nil, err
		}
	}
	if user.IsDemo {
		return []domain.AssessmentRecord{}, nil
	}
	return s.records.ListRecords(ctx, user.UID, kind)
}

// DASS21Trend returns the dashboard series of DASS-21 scores over time.
func (s *AssessmentService) DASS21Trend(ctx context.Context, user domain.User) ([]domain.TrendPoint, error) {
	if user.UID == "" {
		return nil, domain.ErrUserRequired
	}
	if user.IsDemo {
		return demoTrend(s.now().Year()), nil
	}
	records, err := s.records.ListRecords(ctx, user.UID, domain.InstrumentDASS21)
	if err != nil {
		return nil, err
	}
	points := make([]domain.TrendPoint, 0, len(records))
	for _, rec := range records {
		score, ok := rec.Scores.(domain.DASS21Score)
		if !ok {
			continue
		}
		points = append(points, domain.TrendPoint{
			Date:       rec.CreatedAt,
			Depression: score.Depression,
			Anxiety:    score.Anxiety,
			Stress:     score.Stress,
		})
	}
	return points, nil
}

// ExportUserData writes every record of user through the exporter and
// returns the location of the export.
func (s *AssessmentService) ExportUserData(ctx context.Context, user domain.User) (string, error) {
	if user.UID == "" {
		return "", domain.ErrUserRequired
	}
	if user.IsDemo {
		return "", domain.ErrDemoAccount
	}
	if s.exporter == nil {
		return "", ErrExportDisabled
	}
	records, err := s.records.ListRecords(ctx, user.UID, "")
	if err != nil {
		return "", err
	}
	location, err := s.exporter.Export(ctx, user.UID, records)
	if err != nil {
		return "", err
	}
	s.logger.Info("user data exported", zap.String("user_id", user.UID), zap.Int("records", len(records)))
	return location, nil
}

// DeleteUserData erases every stored record of user. The demo account has
// nothing stored and is refused.
func (s *AssessmentService) DeleteUserData(ctx context.Context, user domain.User) (int, error) {
	if user.UID == "" {
		return 0, domain.ErrUserRequired
	}
	if user.IsDemo {
		return 0, domain.ErrDemoAccount
	}
	n, err := s.records.DeleteUserData(ctx, user.UID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("user data deleted", zap.String("user_id", user.UID), zap.Int("records", n))
	return n, nil
}

// demoTrend is the fixed series shown to the demo account.
func demoTrend(year int) []domain.TrendPoint {
	day := func(d int) time.Time { return time.Date(year, time.April, d, 0, 0, 0, 0, time.UTC) }
	return []domain.TrendPoint{
		{Date: day(1), Depression: 22, Anxiety: 18, Stress: 28},
		{Date: day(8), Depression: 18, Anxiety: 15, Stress: 25},
		{Date: day(15), Depression: 16, Anxiety: 12, Stress: 20},
		{Date: day(22), Depression: 14, Anxiety: 10, Stress: 18},
	}
}
