package mark

import (
	"github.com/cockroachdb/errors"
)

func New(name string) error {
	return errors.New(name)
}

func Wrap(err error, mark error, msg string) error {
	return errors.Mark(errors.WrapWithDepth(1, err, msg), mark)
}

func Message(mark error, msg string) error {
	return errors.Mark(errors.NewWithDepth(1, msg), mark)
}
