package retention

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
)

const LockFileName = ".sweep.lock"

type Config struct {
	UploadRoot string
	OutputRoot string
	TTL        time.Duration
	Interval   time.Duration
}

type SweepReport struct {
	// Skipped is set when another process held the sweep lock
	Skipped         bool
	RemovedSessions []string
	Failures        int
}

// Janitor removes session directories, and their records, once they outlive the TTL.
// Only one janitor sweeps at a time across processes sharing the output root.
type Janitor struct {
	config Config
	store  sessionentity.Store
	now    func() time.Time

	stopLock sync.Mutex
	stop     chan struct{}
	done     chan struct{}
}

func NewJanitor(config Config, store sessionentity.Store) *Janitor {
	return &Janitor{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

// WithClock is for tests that can't wait a TTL out
func (j *Janitor) WithClock(now func() time.Time) *Janitor {
	j.now = now
	return j
}

func (j *Janitor) lockPath() string {
	return filepath.Join(j.config.OutputRoot, LockFileName)
}

func (j *Janitor) Sweep(ctx context.Context) (SweepReport, error) {
	if err := os.MkdirAll(j.config.OutputRoot, 0o755); err != nil {
		return SweepReport{}, cerr.Field("output_root", j.config.OutputRoot).
			Wrap(err).Error("Failed to ensure output root")
	}

	fileLock := flock.New(j.lockPath())
	locked, err := fileLock.TryLock()
	if err != nil {
		return SweepReport{}, cerr.Field("lock_path", j.lockPath()).
			Wrap(err).Error("Failed to take the sweep lock")
	}

	if !locked {
		log.Info("Another sweep is running, skipping")
		return SweepReport{Skipped: true}, nil
	}

	defer func() {
		if err := fileLock.Unlock(); err != nil {
			cerr.Log(cerr.Wrap(err).Error("Failed to release the sweep lock"))
		}
	}()

	cutoff := j.now().Add(-j.config.TTL)
	report := SweepReport{
		RemovedSessions: []string{},
	}

	expired := map[string]bool{}
	for _, root := range []string{j.config.OutputRoot, j.config.UploadRoot} {
		if root == "" {
			continue
		}

		sessionIDs, failures := sweepRoot(root, cutoff)
		report.Failures += failures

		for _, sessionID := range sessionIDs {
			expired[sessionID] = true
		}
	}

	for sessionID := range expired {
		if err := j.store.DeleteSession(ctx, sessionID); err != nil {
			report.Failures++
			cerr.Log(cerr.Field("session_id", sessionID).
				Wrap(err).Error("Failed to delete expired session record"))
			continue
		}

		report.RemovedSessions = append(report.RemovedSessions, sessionID)
	}

	log.WithFields(log.Fields{
		"removed":  len(report.RemovedSessions),
		"failures": report.Failures,
	}).Info("Sweep finished")

	return report, nil
}

func sweepRoot(root string, cutoff time.Time) ([]string, int) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			cerr.Log(cerr.Field("root", root).Wrap(err).Error("Failed to list root"))
			return nil, 1
		}
		return nil, 0
	}

	removed := []string{}
	failures := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		// anything that isn't a session directory isn't ours to delete
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			failures++
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			failures++
			cerr.Log(cerr.Field("dir", dir).Wrap(err).Error("Failed to remove expired session directory"))
			continue
		}

		removed = append(removed, entry.Name())
	}

	return removed, failures
}

// Start sweeps every Interval until Stop is called
func (j *Janitor) Start() {
	j.stopLock.Lock()
	defer j.stopLock.Unlock()

	if j.stop != nil || j.config.Interval <= 0 {
		return
	}

	j.stop = make(chan struct{})
	j.done = make(chan struct{})

	go j.loop(j.stop, j.done)
}

func (j *Janitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := j.Sweep(context.Background()); err != nil {
				cerr.Log(err)
			}
		}
	}
}

func (j *Janitor) Stop() {
	j.stopLock.Lock()
	defer j.stopLock.Unlock()

	if j.stop == nil {
		return
	}

	close(j.stop)
	<-j.done

	j.stop = nil
	j.done = nil
}
