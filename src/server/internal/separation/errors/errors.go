package separationerrors

import "github.com/veedubyou/stem-splitter/src/server/internal/errors/api"

const (
	NoAudioFileCode       = api.ErrorCode("no_audio_file")
	NoFileSelectedCode    = api.ErrorCode("no_file_selected")
	UnsupportedFormatCode = api.ErrorCode("unsupported_format")
	BadUploadCode         = api.ErrorCode("bad_upload")
	WorkspaceFaultCode    = api.ErrorCode("workspace_fault")
	SeparationFaultCode   = api.ErrorCode("separation_fault")
	SessionNotFoundCode   = api.ErrorCode("session_not_found")
	FileNotFoundCode      = api.ErrorCode("file_not_found")
)

const (
	NoAudioFileMsg       = "no audio file provided"
	NoFileSelectedMsg    = "no file selected"
	UnsupportedFormatMsg = "unsupported format"
	FileNotFoundMsg      = "file not found"
	SessionNotFoundMsg   = "session not found"
)
