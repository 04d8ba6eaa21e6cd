package sessionentity

import (
	"context"
	"time"
)

type StemDescriptor struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Session is the record kept for one upload-to-download lifecycle.
// The stems listed here are the ones that existed when the upload request was answered.
type Session struct {
	ID               string            `json:"session_id"`
	OriginalFilename string            `json:"original_filename"`
	BaseName         string            `json:"base_name"`
	Strategy         string            `json:"strategy"`
	FallbackReason   string            `json:"fallback_reason,omitempty"`
	Stems            []StemDescriptor  `json:"stems"`
	ArchivedURLs     map[string]string `json:"archived_urls,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
}

func (s Session) Stem(name string) (StemDescriptor, bool) {
	for _, stem := range s.Stems {
		if stem.Name == name {
			return stem, true
		}
	}

	return StemDescriptor{}, false
}

type SessionUpdater func(session Session) (Session, error)

type Store interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
	SetSession(ctx context.Context, session Session) error
	UpdateSession(ctx context.Context, sessionID string, updater SessionUpdater) error
	DeleteSession(ctx context.Context, sessionID string) error
}
