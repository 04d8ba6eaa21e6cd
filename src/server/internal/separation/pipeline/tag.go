package pipeline

import (
	"fmt"

	"github.com/apex/log"
	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors"
)

func (p Pipeline) tagStems(base string, stems []StemResult) {
	if !p.config.TagStems {
		return
	}

	for _, stem := range stems {
		if !stem.Produced {
			continue
		}

		// a stem without tags is still a stem
		if err := tagStem(stem.Path, base, stem.Name); err != nil {
			log.WithError(err).
				WithField("stem_path", stem.Path).
				Warn("Failed to tag stem")
		}
	}
}

func tagStem(path string, base string, stemName string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return errors.Wrap(err, "Failed to open stem for tagging")
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(fmt.Sprintf("%s (%s)", base, stemName))
	tag.SetAlbum(base)

	if err := tag.Save(); err != nil {
		return errors.Wrap(err, "Failed to save stem tags")
	}

	return nil
}
