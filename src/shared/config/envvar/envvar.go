package envvar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	PORT                             = "PORT"
	ENVIRONMENT                      = "ENVIRONMENT"
	UPLOAD_ROOT                      = "UPLOAD_ROOT"
	OUTPUT_ROOT                      = "OUTPUT_ROOT"
	SPLEETER_BIN_PATH                = "SPLEETER_BIN_PATH"
	FFMPEG_BIN_PATH                  = "FFMPEG_BIN_PATH"
	STATIC_DIR                       = "STATIC_DIR"
	ALLOWED_FE_ORIGINS               = "ALLOWED_FE_ORIGINS"
	SESSION_TTL                      = "SESSION_TTL"
	SWEEP_INTERVAL                   = "SWEEP_INTERVAL"
	LOG_LEVEL                        = "LOG_LEVEL"
	LOG_FILE                         = "LOG_FILE"
	AWS_ACCESS_KEY_ID                = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY            = "AWS_SECRET_ACCESS_KEY"
	DYNAMO_REGION                    = "DYNAMO_REGION"
	DYNAMO_HOST                      = "DYNAMO_HOST"
	RABBITMQ_URL                     = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME              = "RABBITMQ_QUEUE_NAME"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	GOOGLE_CLOUD_STORAGE_HOST        = "GOOGLE_CLOUD_STORAGE_HOST"
	GOOGLE_CLOUD_STORAGE_ENDPOINT    = "GOOGLE_CLOUD_STORAGE_ENDPOINT"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func Get(key string, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}

	return val
}

func MustGetInt(key string, fallback int) int {
	val := Get(key, "")
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("Env variable %s is not an integer: %s", key, val))
	}

	return parsed
}

func MustGetDuration(key string, fallback time.Duration) time.Duration {
	val := Get(key, "")
	if val == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Sprintf("Env variable %s is not a duration: %s", key, val))
	}

	return parsed
}

func GetList(key string, fallback []string) []string {
	val := Get(key, "")
	if val == "" {
		return fallback
	}

	list := []string{}
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}

	return list
}
