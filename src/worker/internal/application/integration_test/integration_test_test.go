package integration_test_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-splitter/src/shared/lib/rabbitmq"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
	. "github.com/veedubyou/stem-splitter/src/shared/testing"
	shareddummy "github.com/veedubyou/stem-splitter/src/shared/testing/dummy"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/integration_test/dummy"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/jobs/archive"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/worker"
	"github.com/veedubyou/stem-splitter/src/worker/internal/lib/storagepath"
)

var _ = Describe("IntegrationTest", func() {
	const sessionID = "9d0e8a62-1b55-4c2e-8f3a-6e7d5c4b3a21"

	var (
		outputRoot    string
		pathGenerator storagepath.Generator

		rabbitMQ     *shareddummy.RabbitMQ
		fileStore    *dummy.FileStore
		sessionStore *shareddummy.SessionStore

		queueWorker worker.QueueWorker
	)

	BeforeEach(func() {
		By("Instantiating all dummies", func() {
			outputRoot = TempDir()
			pathGenerator = storagepath.Generator{
				Host:   "https://storage.googleapis.com",
				Bucket: "bucket-head",
			}

			rabbitMQ = shareddummy.NewRabbitMQ()
			fileStore = dummy.NewDummyFileStore()
			sessionStore = shareddummy.NewDummySessionStore()
		})

		By("Setting up a separated session on disk", func() {
			WriteFile(filepath.Join(outputRoot, sessionID, "vocals.mp3"), []byte("vocals-audio"))
			WriteFile(filepath.Join(outputRoot, sessionID, "other.mp3"), []byte("other-audio"))

			err := sessionStore.SetSession(context.Background(), sessionentity.Session{
				ID:       sessionID,
				BaseName: "jam",
				Strategy: "fallback",
				Stems: []sessionentity.StemDescriptor{
					{Name: "vocals", Filename: "jam_vocals.mp3", URL: "/download/" + sessionID + "/vocals.mp3"},
					{Name: "other", Filename: "jam_other.mp3", URL: "/download/" + sessionID + "/other.mp3"},
				},
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		By("Starting the worker", func() {
			archiveHandler := archive.NewJobHandler(sessionStore, fileStore, pathGenerator, outputRoot)
			router := job_router.NewJobRouter(archiveHandler)
			queueWorker = worker.NewQueueWorker(rabbitMQ, "stem-jobs", router)

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				Expect(queueWorker.Start()).To(Succeed())
			}()

			DeferCleanup(func() {
				close(rabbitMQ.MessageChannel)
				Eventually(done).Should(BeClosed())
			})
		})
	})

	publish := func(messageType string, body any) {
		message := ExpectSuccess(rabbitmq.NewJSONMessage(messageType, body))
		Expect(rabbitMQ.Publish(message)).To(Succeed())
	}

	Describe("Archive job", func() {
		BeforeEach(func() {
			publish(archive.JobType, sessionentity.SessionIdentifier{SessionID: sessionID})
		})

		It("acks the message", func() {
			Eventually(rabbitMQ.AckCount).Should(Equal(1))
			Expect(rabbitMQ.NackCount()).To(Equal(0))
		})

		It("moves the stems to cloud storage and records their URLs", func() {
			Eventually(rabbitMQ.AckCount).Should(Equal(1))

			session := ExpectSuccess(sessionStore.GetSession(context.Background(), sessionID))
			Expect(session.ArchivedURLs).To(HaveLen(2))

			vocals := ExpectSuccess(fileStore.GetFile(context.Background(), session.ArchivedURLs["vocals"]))
			Expect(vocals).To(Equal([]byte("vocals-audio")))
		})
	})

	Describe("Archive job for a session the store lost", func() {
		BeforeEach(func() {
			Expect(sessionStore.DeleteSession(context.Background(), sessionID)).To(Succeed())
			publish(archive.JobType, sessionentity.SessionIdentifier{SessionID: sessionID})
		})

		It("nacks the message", func() {
			Eventually(rabbitMQ.NackCount).Should(Equal(1))
			Expect(fileStore.FileCount()).To(Equal(0))
		})
	})

	Describe("Unknown message type", func() {
		BeforeEach(func() {
			Expect(rabbitMQ.Publish(amqp091.Publishing{Type: "split_track", Body: []byte(`{}`)})).To(Succeed())
		})

		It("nacks the message", func() {
			Eventually(rabbitMQ.NackCount).Should(Equal(1))
			Expect(rabbitMQ.AckCount()).To(Equal(0))
		})
	})
})
