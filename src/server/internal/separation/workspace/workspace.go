package workspace

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
)

var (
	AllocateFailedMark   = mark.New("Failed to allocate workspace")
	ReleaseFailedMark    = mark.New("Failed to release workspace")
	InvalidSessionIDMark = mark.New("Invalid session ID")
)

const dirPerm = 0o755

type Roots struct {
	UploadRoot string
	OutputRoot string
}

// Workspace is the pair of directories owned by one session
type Workspace struct {
	SessionID string
	UploadDir string
	OutputDir string
}

type Option func(m *Manager)

// WithIDGenerator replaces uuid.NewString, mostly so tests can force collisions
func WithIDGenerator(generator func() string) Option {
	return func(m *Manager) {
		m.newID = generator
	}
}

type Manager struct {
	roots Roots
	newID func() string
}

func NewManager(roots Roots, opts ...Option) (Manager, error) {
	uploadRoot, err := filepath.Abs(roots.UploadRoot)
	if err != nil {
		return Manager{}, cerr.Field("upload_root", roots.UploadRoot).
			Wrap(err).Error("Failed to resolve upload root")
	}

	outputRoot, err := filepath.Abs(roots.OutputRoot)
	if err != nil {
		return Manager{}, cerr.Field("output_root", roots.OutputRoot).
			Wrap(err).Error("Failed to resolve output root")
	}

	manager := Manager{
		roots: Roots{
			UploadRoot: uploadRoot,
			OutputRoot: outputRoot,
		},
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(&manager)
	}

	if err := manager.ensureRoots(); err != nil {
		return Manager{}, err
	}

	return manager, nil
}

func (m Manager) Roots() Roots {
	return m.roots
}

func (m Manager) ensureRoots() error {
	for _, root := range []string{m.roots.UploadRoot, m.roots.OutputRoot} {
		if err := os.MkdirAll(root, dirPerm); err != nil {
			return mark.Wrap(cerr.Field("root", root).Wrap(err).Error("Failed to create root directory"),
				AllocateFailedMark, "Failed to create workspace root")
		}
	}

	return nil
}

// Allocate creates both session directories under a fresh session ID.
// Mkdir rather than MkdirAll, an existing directory means the ID was already used.
func (m Manager) Allocate() (Workspace, error) {
	if err := m.ensureRoots(); err != nil {
		return Workspace{}, err
	}

	sessionID := m.newID()
	workspace := Workspace{
		SessionID: sessionID,
		UploadDir: filepath.Join(m.roots.UploadRoot, sessionID),
		OutputDir: filepath.Join(m.roots.OutputRoot, sessionID),
	}

	errctx := cerr.Field("session_id", sessionID)

	if err := os.Mkdir(workspace.UploadDir, dirPerm); err != nil {
		return Workspace{}, mark.Wrap(errctx.Field("dir", workspace.UploadDir).Wrap(err).Error("Failed to create upload directory"),
			AllocateFailedMark, "Failed to allocate workspace")
	}

	if err := os.Mkdir(workspace.OutputDir, dirPerm); err != nil {
		if cleanupErr := os.RemoveAll(workspace.UploadDir); cleanupErr != nil {
			cerr.Log(errctx.Wrap(cleanupErr).Error("Failed to clean up upload directory"))
		}

		return Workspace{}, mark.Wrap(errctx.Field("dir", workspace.OutputDir).Wrap(err).Error("Failed to create output directory"),
			AllocateFailedMark, "Failed to allocate workspace")
	}

	return workspace, nil
}

func (m Manager) ReleaseUpload(workspace Workspace) error {
	return release(workspace.SessionID, workspace.UploadDir)
}

func (m Manager) ReleaseOutput(workspace Workspace) error {
	return release(workspace.SessionID, workspace.OutputDir)
}

func release(sessionID string, dir string) error {
	if dir == "" {
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return mark.Wrap(cerr.Field("session_id", sessionID).Field("dir", dir).Wrap(err).Error("Failed to remove directory"),
			ReleaseFailedMark, "Failed to release workspace")
	}

	return nil
}

// SessionOutputDir resolves where a session's stems live.
// Only well formed UUIDs are accepted so the ID can never walk out of the output root.
func (m Manager) SessionOutputDir(sessionID string) (string, error) {
	if !IsSessionID(sessionID) {
		return "", mark.Message(InvalidSessionIDMark, "Session ID is not a UUID")
	}

	return filepath.Join(m.roots.OutputRoot, sessionID), nil
}

func IsSessionID(sessionID string) bool {
	parsed, err := uuid.Parse(sessionID)
	if err != nil {
		return false
	}

	// uuid.Parse also accepts urn and braced forms
	return parsed.String() == sessionID
}
