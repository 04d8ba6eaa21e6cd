package dummy

import (
	"context"
	"sync"

	"github.com/veedubyou/stem-splitter/src/shared/testing/dummy"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/cloud_storage/store"
)

var _ store.FileStore = &FileStore{}

type FileStore struct {
	Unavailable bool

	mutex sync.Mutex
	files map[string][]byte
}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		files:       map[string][]byte{},
	}
}

func (f *FileStore) GetFile(_ context.Context, fileURL string) ([]byte, error) {
	if f.Unavailable {
		return nil, dummy.NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	content, ok := f.files[fileURL]
	if !ok {
		return nil, dummy.NotFound
	}

	return content, nil
}

func (f *FileStore) WriteFile(_ context.Context, fileURL string, fileContent []byte) error {
	if f.Unavailable {
		return dummy.NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.files[fileURL] = fileContent
	return nil
}

func (f *FileStore) FileCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.files)
}
