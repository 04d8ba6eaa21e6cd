package separationusecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stem-splitter/src/server/internal/errors/api"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/catalog"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/errors"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/pipeline"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/workspace"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
	"github.com/veedubyou/stem-splitter/src/shared/session/storage"
)

type Config struct {
	SessionTTL time.Duration
}

type SeparateResponse struct {
	Success   bool                           `json:"success"`
	SessionID string                         `json:"session_id"`
	Stems     []sessionentity.StemDescriptor `json:"stems"`
}

type DownloadFile struct {
	Path           string
	AttachmentName string
}

type Usecase struct {
	config    Config
	workspace workspace.Manager
	pipeline  pipeline.Pipeline
	store     sessionentity.Store
	publisher rabbitmq.Publisher
	now       func() time.Time
}

func NewUsecase(config Config, workspace workspace.Manager, pipeline pipeline.Pipeline, store sessionentity.Store, publisher rabbitmq.Publisher) Usecase {
	return Usecase{
		config:    config,
		workspace: workspace,
		pipeline:  pipeline,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (u Usecase) Separate(ctx context.Context, upload Upload) (SeparateResponse, *api.Error) {
	if apiErr := ValidateFilename(upload.Filename); apiErr != nil {
		return SeparateResponse{}, apiErr
	}

	// a client hanging up doesn't abandon the session half way
	ctx = context.WithoutCancel(ctx)

	ws, err := u.workspace.Allocate()
	if err != nil {
		return SeparateResponse{}, api.CommitError(err,
			separationerrors.WorkspaceFaultCode,
			"Failed to prepare a workspace for the upload")
	}

	logger := log.WithField("session_id", ws.SessionID)

	// the upload never outlives the request, whatever happens below
	defer func() {
		if err := u.workspace.ReleaseUpload(ws); err != nil {
			cerr.Log(err)
		}
	}()

	response, apiErr := u.separateInWorkspace(ctx, ws, upload)
	if apiErr != nil {
		if err := u.workspace.ReleaseOutput(ws); err != nil {
			cerr.Log(err)
		}

		return SeparateResponse{}, apiErr
	}

	logger.WithField("stem_count", len(response.Stems)).Info("Separation finished")
	return response, nil
}

func (u Usecase) separateInWorkspace(ctx context.Context, ws workspace.Workspace, upload Upload) (SeparateResponse, *api.Error) {
	errctx := cerr.Field("session_id", ws.SessionID).Field("filename", upload.Filename)

	inputPath := filepath.Join(ws.UploadDir, SanitizeFilename(upload.Filename))
	if err := saveUpload(inputPath, upload.Content); err != nil {
		return SeparateResponse{}, api.CommitError(errctx.Wrap(err).Error("Failed to save upload"),
			separationerrors.WorkspaceFaultCode,
			"Failed to save the uploaded file")
	}

	result, err := u.pipeline.Run(ctx, inputPath, ws.OutputDir)
	if err != nil {
		return SeparateResponse{}, api.CommitError(errctx.Wrap(err).Error("Separation pipeline failed"),
			separationerrors.SeparationFaultCode,
			"Failed to separate the audio file")
	}

	baseName := pipeline.BaseName(inputPath)

	attempts := []catalog.Attempt{}
	for _, stem := range result.Stems {
		attempts = append(attempts, catalog.Attempt{
			Name: stem.Name,
			Path: stem.Path,
		})
	}

	descriptors, err := catalog.Build(ws.SessionID, baseName, attempts)
	if err != nil {
		return SeparateResponse{}, api.CommitError(errctx.Wrap(err).Error("Failed to catalog stems"),
			separationerrors.SeparationFaultCode,
			"Failed to collect the separated stems")
	}

	now := u.now().UTC()
	u.recordSession(ctx, sessionentity.Session{
		ID:               ws.SessionID,
		OriginalFilename: upload.Filename,
		BaseName:         baseName,
		Strategy:         string(result.Strategy),
		FallbackReason:   result.FallbackReason,
		Stems:            descriptors,
		CreatedAt:        now,
		ExpiresAt:        now.Add(u.config.SessionTTL),
	})

	return SeparateResponse{
		Success:   true,
		SessionID: ws.SessionID,
		Stems:     descriptors,
	}, nil
}

// recordSession is best effort, the stems are on disk either way
func (u Usecase) recordSession(ctx context.Context, session sessionentity.Session) {
	errctx := cerr.Field("session_id", session.ID)

	if err := u.store.SetSession(ctx, session); err != nil {
		cerr.Log(errctx.Wrap(err).Error("Failed to record session"))
		return
	}

	if len(session.Stems) == 0 {
		return
	}

	message, err := rabbitmq.NewJSONMessage(sessionentity.ArchiveJobType, sessionentity.SessionIdentifier{
		SessionID: session.ID,
	})
	if err != nil {
		cerr.Log(errctx.Wrap(err).Error("Failed to create archive message"))
		return
	}

	if err := u.publisher.Publish(message); err != nil {
		cerr.Log(errctx.Wrap(err).Error("Failed to publish archive message"))
	}
}

func saveUpload(path string, content io.Reader) error {
	if content == nil {
		return errors.New("Upload has no content")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "Failed to create upload file")
	}

	if _, err := io.Copy(file, content); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "Failed to write upload file")
	}

	if err := file.Close(); err != nil {
		return errors.Wrap(err, "Failed to flush upload file")
	}

	return nil
}

func (u Usecase) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, *api.Error) {
	if !workspace.IsSessionID(sessionID) {
		return sessionentity.Session{}, api.CommitError(cerr.Field("session_id", sessionID).Error("Session ID is not valid"),
			separationerrors.SessionNotFoundCode,
			separationerrors.SessionNotFoundMsg)
	}

	session, err := u.store.GetSession(ctx, sessionID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get session from store")
		switch {
		case markers.Is(err, sessionstorage.SessionNotFoundMark):
			return sessionentity.Session{}, api.CommitError(err,
				separationerrors.SessionNotFoundCode,
				separationerrors.SessionNotFoundMsg)

		default:
			return sessionentity.Session{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown Error: Failed to fetch session")
		}
	}

	return session, nil
}

// ResolveDownload finds a stem file on disk. Anything that isn't a plain file directly
// inside a valid session's output directory is reported as not found.
func (u Usecase) ResolveDownload(ctx context.Context, sessionID string, filename string) (DownloadFile, *api.Error) {
	errctx := cerr.Field("session_id", sessionID).Field("filename", filename)

	notFound := func(err error) *api.Error {
		return api.CommitError(err,
			separationerrors.FileNotFoundCode,
			separationerrors.FileNotFoundMsg)
	}

	outputDir, err := u.workspace.SessionOutputDir(sessionID)
	if err != nil {
		return DownloadFile{}, notFound(errctx.Wrap(err).Error("Invalid session for download"))
	}

	if !isPlainFilename(filename) {
		return DownloadFile{}, notFound(errctx.Error("Filename is not a single path element"))
	}

	path := filepath.Join(outputDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return DownloadFile{}, notFound(errctx.Wrap(err).Error("Stem file is not available"))
	}

	if !info.Mode().IsRegular() {
		return DownloadFile{}, notFound(errctx.Error("Requested path is not a file"))
	}

	return DownloadFile{
		Path:           path,
		AttachmentName: u.attachmentName(ctx, sessionID, filename),
	}, nil
}

func (u Usecase) attachmentName(ctx context.Context, sessionID string, filename string) string {
	session, err := u.store.GetSession(ctx, sessionID)
	if err != nil {
		log.WithError(err).
			WithField("session_id", sessionID).
			Debug("No session record, using the file name as is")
		return filename
	}

	for _, stem := range session.Stems {
		if filepath.Base(stem.URL) == filename {
			return stem.Filename
		}
	}

	return filename
}

func isPlainFilename(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}

	return filepath.Base(filename) == filename && filepath.Clean(filename) == filename &&
		!strings.ContainsAny(filename, "/\\\x00")
}
