package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/config/envvar"
	"github.com/veedubyou/stem-splitter/src/shared/lib/env"
	"github.com/veedubyou/stem-splitter/src/shared/lib/logging"
	"github.com/veedubyou/stem-splitter/src/worker/application"
)

const googleStorageHost = "https://storage.googleapis.com"

func main() {
	_ = godotenv.Load()

	environment := env.Get()

	logCloser, err := logging.Setup(logging.Config{
		Environment: environment,
		Level:       envvar.Get(envvar.LOG_LEVEL, "info"),
		File:        envvar.Get(envvar.LOG_FILE, ""),
	})
	if err != nil {
		panic(err)
	}
	defer logCloser.Close()

	dynamoConfig := config.Dynamo{
		AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
		SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
		Region:          envvar.MustGet(envvar.DYNAMO_REGION),
		Host:            envvar.Get(envvar.DYNAMO_HOST, ""),
	}

	cloudStorageConfig := config.CloudStorage{
		StorageHost:  envvar.Get(envvar.GOOGLE_CLOUD_STORAGE_HOST, googleStorageHost),
		BucketName:   envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
		HostEndpoint: envvar.Get(envvar.GOOGLE_CLOUD_STORAGE_ENDPOINT, ""),
	}
	if !cloudStorageConfig.IsLocal() {
		cloudStorageConfig.SecretKey = envvar.MustGet(envvar.GOOGLE_CLOUD_KEY)
	}

	appConfig := application.Config{
		RabbitMQURL:        envvar.MustGet(envvar.RABBITMQ_URL),
		RabbitMQQueueName:  envvar.Get(envvar.RABBITMQ_QUEUE_NAME, "stem-splitter-sessions"),
		DynamoConfig:       dynamoConfig,
		CloudStorageConfig: cloudStorageConfig,
		OutputRoot:         envvar.Get(envvar.OUTPUT_ROOT, "/tmp/separated"),
	}

	log.WithFields(log.Fields{
		"environment": environment,
		"bucket":      cloudStorageConfig.BucketName,
		"output_root": appConfig.OutputRoot,
	}).Info("Configured worker")

	app := application.NewApp(appConfig)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		app.Stop()
	}()

	if err := app.Start(); err != nil {
		panic(err)
	}
}
