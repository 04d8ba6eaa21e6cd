package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-splitter/src/admin/internal/cli"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
	sessionstorage "github.com/veedubyou/stem-splitter/src/shared/session/storage"
	. "github.com/veedubyou/stem-splitter/src/shared/testing"
	"github.com/veedubyou/stem-splitter/src/shared/testing/dummy"
)

var _ = Describe("Admin CLI", func() {
	var (
		options cli.Options
		store   *sessionstorage.Memory
		args    []string
		output  *bytes.Buffer
		err     error
	)

	BeforeEach(func() {
		store = sessionstorage.NewMemory()
		options = cli.Options{
			FindBin: func(bin string) (string, error) {
				return "/usr/bin/" + bin, nil
			},
			SessionStore: func() sessionentity.Store {
				return store
			},
		}
		output = &bytes.Buffer{}
	})

	JustBeforeEach(func() {
		cmd := cli.NewRootCommand(options)
		cmd.SetOut(output)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err = cmd.ExecuteContext(context.Background())
	})

	Describe("deps", func() {
		BeforeEach(func() {
			args = []string{"deps"}
		})

		Describe("when every binary is found", func() {
			It("succeeds", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("lists both binaries with their paths", func() {
				Expect(output.String()).To(ContainSubstring("/usr/bin/spleeter"))
				Expect(output.String()).To(ContainSubstring("/usr/bin/ffmpeg"))
				Expect(output.String()).NotTo(ContainSubstring("missing"))
			})
		})

		Describe("when spleeter is missing", func() {
			BeforeEach(func() {
				options.FindBin = func(bin string) (string, error) {
					if bin == "spleeter" {
						return "", dummy.NotFound
					}
					return "/usr/bin/" + bin, nil
				}
			})

			It("fails naming the missing binary", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("spleeter"))
			})

			It("still prints the table", func() {
				Expect(output.String()).To(ContainSubstring("missing"))
				Expect(output.String()).To(ContainSubstring("/usr/bin/ffmpeg"))
			})
		})
	})

	Describe("sweep", func() {
		var (
			uploadRoot string
			outputRoot string
			oldID      string
			freshID    string
		)

		makeSessionDir := func(root string, sessionID string, modTime time.Time) string {
			dir := filepath.Join(root, sessionID)
			WriteFile(filepath.Join(dir, "vocals.mp3"), []byte("stem"))
			Expect(os.Chtimes(dir, modTime, modTime)).To(Succeed())
			return dir
		}

		BeforeEach(func() {
			base := TempDir()
			uploadRoot = filepath.Join(base, "uploads")
			outputRoot = filepath.Join(base, "separated")
			oldID = uuid.NewString()
			freshID = uuid.NewString()

			makeSessionDir(outputRoot, oldID, time.Now().Add(-48*time.Hour))
			makeSessionDir(outputRoot, freshID, time.Now())
			Expect(store.SetSession(context.Background(), sessionentity.Session{ID: oldID})).To(Succeed())

			args = []string{"sweep", "--upload-root", uploadRoot, "--output-root", outputRoot, "--ttl", "24h"}
		})

		It("succeeds", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes only the expired session", func() {
			Expect(FileExists(filepath.Join(outputRoot, oldID))).To(BeFalse())
			Expect(FileExists(filepath.Join(outputRoot, freshID))).To(BeTrue())
		})

		It("drops the expired session record", func() {
			_, getErr := store.GetSession(context.Background(), oldID)
			Expect(getErr).To(HaveOccurred())
		})

		It("reports what it removed", func() {
			Expect(output.String()).To(ContainSubstring(oldID))
			Expect(output.String()).NotTo(ContainSubstring(freshID))
		})
	})
})
