package memory

import (
	"context"
	"sync"

	"psych-assessment-service/internal/domain"
)

// ProfileStore keeps sign-up profiles in process memory, indexed by email.
type ProfileStore struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Profile
	emails  map[string]string // uid -> email
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		byEmail: make(map[string]domain.Profile),
		emails:  make(map[string]string),
	}
}

func (s *ProfileStore) CreateProfile(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[profile.Email]; ok {
		return domain.ErrEmailTaken
	}
	profile.PasswordHash = append([]byte(nil), profile.PasswordHash...)
	s.byEmail[profile.Email] = profile
	s.emails[profile.UID] = profile.Email
	return nil
}

func (s *ProfileStore) ProfileByEmail(_ context.Context, email string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.byEmail[email]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileStore) DeleteProfile(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.emails[uid]
	if !ok {
		return domain.ErrProfileNotFound
	}
	delete(s.emails, uid)
	delete(s.byEmail, email)
	return nil
}
