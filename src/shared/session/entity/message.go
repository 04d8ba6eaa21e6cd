package sessionentity

// ArchiveJobType is published once a session has stems worth keeping
const ArchiveJobType string = "archive_session"

type SessionIdentifier struct {
	SessionID string `json:"session_id"`
}
