package catalog

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
)

// Attempt is a stem the pipeline tried to produce, whether or not it succeeded
type Attempt struct {
	Name string
	Path string
}

func Filename(baseName string, stemName string) string {
	return fmt.Sprintf("%s_%s.mp3", baseName, stemName)
}

func DownloadURL(sessionID string, stemName string) string {
	return fmt.Sprintf("/download/%s/%s.mp3", sessionID, stemName)
}

// Build describes every attempt whose file actually exists, in attempt order
func Build(sessionID string, baseName string, attempts []Attempt) ([]sessionentity.StemDescriptor, error) {
	descriptors := []sessionentity.StemDescriptor{}

	for _, attempt := range attempts {
		_, err := os.Stat(attempt.Path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, cerr.Field("session_id", sessionID).
				Field("stem_path", attempt.Path).
				Wrap(err).Error("Failed to check stem file")
		}

		descriptors = append(descriptors, sessionentity.StemDescriptor{
			Name:     attempt.Name,
			Filename: Filename(baseName, attempt.Name),
			URL:      DownloadURL(sessionID, attempt.Name),
		})
	}

	return descriptors, nil
}
