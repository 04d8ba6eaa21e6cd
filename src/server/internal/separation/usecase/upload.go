package separationusecase

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/veedubyou/stem-splitter/src/server/internal/errors/api"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
)

const fallbackBaseName = "audio"

var allowedExtensions = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"flac": true,
	"m4a":  true,
	"ogg":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

type Upload struct {
	Filename string
	Content  io.Reader
}

func extension(filename string) string {
	return strings.TrimPrefix(filepath.Ext(filename), ".")
}

// ValidateFilename applies the upload rules in order: a name must be given, then its
// extension must be one we can decode. Case doesn't matter for the extension.
func ValidateFilename(filename string) *api.Error {
	if filename == "" {
		return api.CommitError(cerr.Error("Uploaded file has no name"),
			separationerrors.NoFileSelectedCode,
			separationerrors.NoFileSelectedMsg)
	}

	ext := strings.ToLower(extension(filename))
	if !allowedExtensions[ext] {
		return api.CommitError(cerr.Field("filename", filename).Error("Extension is not allowed"),
			separationerrors.UnsupportedFormatCode,
			separationerrors.UnsupportedFormatMsg)
	}

	return nil
}

// SanitizeFilename turns a client supplied name into a single safe path element.
// Only ASCII letters, digits, dot, dash and underscore survive; the extension is kept as is.
func SanitizeFilename(filename string) string {
	ext := extension(filename)
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name == "" {
		name = fallbackBaseName
	}

	ext = unsafeFilenameChars.ReplaceAllString(ext, "")
	if ext == "" {
		return name
	}

	return name + "." + ext
}
