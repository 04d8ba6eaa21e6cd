package job_router

import (
	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/worker/internal/application/jobs/archive"
)

type JobRouter struct {
	archiveHandler archive.ArchiveJobHandler
}

func NewJobRouter(archiveHandler archive.ArchiveJobHandler) JobRouter {
	return JobRouter{
		archiveHandler: archiveHandler,
	}
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	logger := log.WithField("message_type", message.Type)

	switch message.Type {
	case archive.JobType:
		if err := j.archiveHandler.HandleArchiveJob(message.Body); err != nil {
			return cerr.Wrap(err).Error(archive.ErrorMessage)
		}

		logger.Info("Archived session stems")
		return nil

	default:
		return cerr.Field("message_type", message.Type).Error("Unrecognized message type")
	}
}
