package sessionstorage

import "github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"

var (
	SessionNotFoundMark = mark.New("Session not found")
	IDEmptyMark         = mark.New("Session ID is empty")
	UnmarshalMark       = mark.New("Failed to unmarshal session")
	DefaultErrorMark    = mark.New("Session store error")
)
