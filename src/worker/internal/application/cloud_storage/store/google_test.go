package store_test

import (
	"context"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/veedubyou/stem-splitter/src/shared/testing"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/cloud_storage/store"
)

var _ = Describe("GoogleFileStore", func() {
	const (
		host   = "https://storage.googleapis.com"
		bucket = "stems"
	)

	var (
		server    *fakestorage.Server
		fileStore store.GoogleFileStore
	)

	BeforeEach(func() {
		server = fakestorage.NewServer([]fakestorage.Object{
			{
				ObjectAttrs: fakestorage.ObjectAttrs{
					BucketName: bucket,
					Name:       "sessions/existing/vocals.mp3",
				},
				Content: []byte("vocals"),
			},
		})
		DeferCleanup(server.Stop)

		fileStore = store.NewGoogleFileStoreFromClient(host, server.Client())
	})

	It("reads objects by URL", func() {
		content := ExpectSuccess(fileStore.GetFile(context.Background(), host+"/stems/sessions/existing/vocals.mp3"))
		Expect(content).To(Equal([]byte("vocals")))
	})

	It("writes objects by URL", func() {
		err := fileStore.WriteFile(context.Background(), host+"/stems/sessions/new/other.mp3", []byte("other"))
		Expect(err).NotTo(HaveOccurred())

		object := ExpectSuccess(server.GetObject(bucket, "sessions/new/other.mp3"))
		Expect(object.Content).To(Equal([]byte("other")))
	})

	It("refuses URLs on another host", func() {
		_, err := fileStore.GetFile(context.Background(), "https://example.com/stems/sessions/existing/vocals.mp3")
		Expect(err).To(HaveOccurred())
	})

	It("refuses URLs without an object name", func() {
		err := fileStore.WriteFile(context.Background(), host+"/stems", []byte("x"))
		Expect(err).To(HaveOccurred())
	})
})
