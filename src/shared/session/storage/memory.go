package sessionstorage

import (
	"context"
	"sync"

	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
)

var _ sessionentity.Store = &Memory{}

// Memory keeps sessions for a single process, used when no DynamoDB is configured
type Memory struct {
	lock     sync.RWMutex
	sessions map[string]sessionentity.Session
}

func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]sessionentity.Session{},
	}
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (sessionentity.Session, error) {
	if sessionID == "" {
		return sessionentity.Session{}, mark.Message(IDEmptyMark, "No session ID was provided")
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return sessionentity.Session{}, mark.Message(SessionNotFoundMark, "Session is not found")
	}

	return copySession(session), nil
}

func (m *Memory) SetSession(_ context.Context, session sessionentity.Session) error {
	if session.ID == "" {
		return mark.Message(IDEmptyMark, "Session ID is not defined")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *Memory) UpdateSession(_ context.Context, sessionID string, updater sessionentity.SessionUpdater) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return mark.Message(SessionNotFoundMark, "Can't find the session to update")
	}

	updated, err := updater(copySession(session))
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the session")
	}

	updated.ID = sessionID
	m.sessions[sessionID] = copySession(updated)
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return mark.Message(IDEmptyMark, "No session ID was provided")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func copySession(session sessionentity.Session) sessionentity.Session {
	stems := make([]sessionentity.StemDescriptor, len(session.Stems))
	copy(stems, session.Stems)
	session.Stems = stems

	if session.ArchivedURLs != nil {
		archived := make(map[string]string, len(session.ArchivedURLs))
		for name, url := range session.ArchivedURLs {
			archived[name] = url
		}
		session.ArchivedURLs = archived
	}

	return session
}
