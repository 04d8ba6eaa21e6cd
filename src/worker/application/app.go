package application

import (
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	dynamolib "github.com/veedubyou/stem-splitter/src/shared/lib/dynamo"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
	sessionstorage "github.com/veedubyou/stem-splitter/src/shared/session/storage"
	filestore "github.com/veedubyou/stem-splitter/src/worker/internal/application/cloud_storage/store"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/jobs/archive"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/worker"
	"github.com/veedubyou/stem-splitter/src/worker/internal/lib/storagepath"
	"google.golang.org/api/option"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker worker.QueueWorker
}

type Config struct {
	RabbitMQURL        string
	RabbitMQQueueName  string
	DynamoConfig       config.Dynamo
	CloudStorageConfig config.CloudStorage

	// OutputRoot must be the same directory the server writes stems into
	OutputRoot string
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))

	return App{
		worker: newWorker(config, consumerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.worker.Stop()
}

func newWorker(config Config, consumerConn *amqp091.Connection) worker.QueueWorker {
	sessionStore := sessionstorage.NewDB(dynamolib.NewDynamoDBFromConfig(config.DynamoConfig))

	return must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, sessionStore)))
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	if cloudStorageConfig.IsLocal() {
		return must(filestore.NewGoogleFileStore(
			cloudStorageConfig.StorageHost,
			option.WithEndpoint(cloudStorageConfig.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))
	}

	return must(filestore.NewGoogleFileStore(
		cloudStorageConfig.StorageHost,
		option.WithCredentialsJSON([]byte(cloudStorageConfig.SecretKey)),
	))
}

func newJobRouter(config Config, sessionStore sessionentity.Store) job_router.JobRouter {
	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.StorageHost,
		Bucket: config.CloudStorageConfig.BucketName,
	}

	archiveHandler := archive.NewJobHandler(
		sessionStore,
		newGoogleFileStore(config.CloudStorageConfig),
		pathGenerator,
		config.OutputRoot,
	)

	return job_router.NewJobRouter(archiveHandler)
}
