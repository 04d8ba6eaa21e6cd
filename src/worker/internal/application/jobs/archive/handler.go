package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/cloud_storage/store"
	"github.com/veedubyou/stem-splitter/src/worker/internal/lib/storagepath"
	"golang.org/x/sync/errgroup"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = sessionentity.ArchiveJobType
const ErrorMessage string = "Failed to archive session stems"

type JobParams struct {
	sessionentity.SessionIdentifier
}

//counterfeiter:generate . ArchiveJobHandler
type ArchiveJobHandler interface {
	HandleArchiveJob(message []byte) error
}

func NewJobHandler(sessionStore sessionentity.Store, fileStore store.FileStore, pathGenerator storagepath.Generator, outputRoot string) JobHandler {
	return JobHandler{
		sessionStore:  sessionStore,
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
		outputRoot:    outputRoot,
	}
}

// JobHandler copies a session's stems from local disk into cloud storage
// and records the resulting URLs on the session
type JobHandler struct {
	sessionStore  sessionentity.Store
	fileStore     store.FileStore
	pathGenerator storagepath.Generator
	outputRoot    string
}

func (j JobHandler) HandleArchiveJob(message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("session_id", params.SessionID)
	ctx := context.Background()

	session, err := j.sessionStore.GetSession(ctx, params.SessionID)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to get session")
	}

	if len(session.Stems) == 0 {
		log.WithField("session_id", session.ID).Info("Session has no stems, nothing to archive")
		return nil
	}

	archivedURLs, err := j.uploadStems(ctx, session)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to upload stems")
	}

	updater := func(session sessionentity.Session) (sessionentity.Session, error) {
		session.ArchivedURLs = archivedURLs
		return session, nil
	}

	err = j.sessionStore.UpdateSession(ctx, session.ID, updater)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to record archived URLs")
	}

	return nil
}

func (j JobHandler) uploadStems(ctx context.Context, session sessionentity.Session) (map[string]string, error) {
	var mutex sync.Mutex
	archivedURLs := map[string]string{}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, stem := range session.Stems {
		stem := stem
		group.Go(func() error {
			leaf := stem.Name + ".mp3"
			localPath := filepath.Join(j.outputRoot, session.ID, leaf)
			errctx := cerr.Field("stem_name", stem.Name).Field("local_path", localPath)

			content, err := os.ReadFile(localPath)
			if err != nil {
				return errctx.Wrap(err).Error("Failed to read stem file")
			}

			url := j.pathGenerator.GeneratePath(session.ID, leaf)
			if err := j.fileStore.WriteFile(groupCtx, url, content); err != nil {
				return errctx.Field("url", url).Wrap(err).Error("Failed to write stem to cloud storage")
			}

			mutex.Lock()
			archivedURLs[stem.Name] = url
			mutex.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return archivedURLs, nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.SessionID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing session ID")
	}

	return params, nil
}
