package dummy

import (
	"context"

	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
	"github.com/veedubyou/stem-splitter/src/shared/session/storage"
)

var _ sessionentity.Store = &SessionStore{}

// SessionStore is the in-memory store with a switch to simulate an outage
type SessionStore struct {
	Unavailable bool
	*sessionstorage.Memory
}

func NewDummySessionStore() *SessionStore {
	return &SessionStore{
		Unavailable: false,
		Memory:      sessionstorage.NewMemory(),
	}
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, error) {
	if s.Unavailable {
		return sessionentity.Session{}, NetworkFailure
	}

	return s.Memory.GetSession(ctx, sessionID)
}

func (s *SessionStore) SetSession(ctx context.Context, session sessionentity.Session) error {
	if s.Unavailable {
		return NetworkFailure
	}

	return s.Memory.SetSession(ctx, session)
}

func (s *SessionStore) UpdateSession(ctx context.Context, sessionID string, updater sessionentity.SessionUpdater) error {
	if s.Unavailable {
		return NetworkFailure
	}

	return s.Memory.UpdateSession(ctx, sessionID, updater)
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	if s.Unavailable {
		return NetworkFailure
	}

	return s.Memory.DeleteSession(ctx, sessionID)
}
