package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/veedubyou/stem-splitter/src/server/application"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/pipeline"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/workspace"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/config/envvar"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/env"
	"github.com/veedubyou/stem-splitter/src/shared/lib/logging"
)

func main() {
	// a missing .env is normal outside of local development
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

	pipelineConfig := pipeline.DefaultConfig()
	pipelineConfig.SeparatorBinPath = config.ResolveBin(envvar.Get(envvar.SPLEETER_BIN_PATH, ""), config.SpleeterBin)
	pipelineConfig.TranscoderBinPath = config.ResolveBin(envvar.Get(envvar.FFMPEG_BIN_PATH, ""), config.FFmpegBin)

	appConfig := application.Config{
		Port: envvar.MustGetInt(envvar.PORT, 10000),
		Workspace: workspace.Roots{
			UploadRoot: envvar.Get(envvar.UPLOAD_ROOT, "/tmp/uploads"),
			OutputRoot: envvar.Get(envvar.OUTPUT_ROOT, "/tmp/separated"),
		},
		Pipeline:           pipelineConfig,
		SessionTTL:         envvar.MustGetDuration(envvar.SESSION_TTL, 24*time.Hour),
		SweepInterval:      envvar.MustGetDuration(envvar.SWEEP_INTERVAL, 15*time.Minute),
		StaticDir:          envvar.Get(envvar.STATIC_DIR, ""),
		CORSAllowedOrigins: envvar.GetList(envvar.ALLOWED_FE_ORIGINS, []string{"*"}),
		DynamoConfig: config.Dynamo{
			AccessKeyID:     envvar.Get(envvar.AWS_ACCESS_KEY_ID, ""),
			SecretAccessKey: envvar.Get(envvar.AWS_SECRET_ACCESS_KEY, ""),
			Region:          envvar.Get(envvar.DYNAMO_REGION, ""),
			Host:            envvar.Get(envvar.DYNAMO_HOST, ""),
		},
		RabbitMQURL:       envvar.Get(envvar.RABBITMQ_URL, ""),
		RabbitMQQueueName: envvar.Get(envvar.RABBITMQ_QUEUE_NAME, "stem-splitter-sessions"),
		Log:               environment != env.Test,
	}

	log.WithFields(log.Fields{
		"environment":   environment,
		"separator_bin": pipelineConfig.SeparatorBinPath,
		"transcode_bin": pipelineConfig.TranscoderBinPath,
	}).Info("Configured server")

	app := application.NewApp(appConfig)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals

		if err := app.Stop(); err != nil {
			cerr.Log(err)
		}
	}()

	if err := app.Start(); err != nil {
		panic(err)
	}
}
