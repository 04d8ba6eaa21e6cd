package application

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veedubyou/stem-splitter/src/server/internal/errors/gateway"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/gateway"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/pipeline"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/usecase"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/workspace"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
	"github.com/veedubyou/stem-splitter/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stem-splitter/src/shared/retention"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
	"github.com/veedubyou/stem-splitter/src/shared/session/storage"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

const DefaultServiceName = "stem-splitter"

type App struct {
	echo      *echo.Echo
	port      int
	janitor   *retention.Janitor
	publisher rabbitmq.Publisher
}

type Config struct {
	ServiceName        string
	Port               int
	Workspace          workspace.Roots
	Pipeline           pipeline.Config
	SessionTTL         time.Duration
	SweepInterval      time.Duration
	StaticDir          string
	CORSAllowedOrigins []string
	DynamoConfig       config.Dynamo
	RabbitMQURL        string
	RabbitMQQueueName  string
	Log                bool

	// the fields below replace the real collaborators when set
	Executor     executor.Executor
	SessionStore sessionentity.Store
	Publisher    rabbitmq.Publisher
}

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

func NewApp(config Config) App {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = gateway.HTTPErrorHandler

	if config.Log {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	workspaceManager := must(workspace.NewManager(config.Workspace))
	sessionStore := makeSessionStore(config)
	publisher := makePublisher(config, sessionStore)

	separationGateway := makeSeparationGateway(config, workspaceManager, sessionStore, publisher)

	handleRoute(GET, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"service": serviceName,
			"port":    config.Port,
		})
	})

	handleRoute(POST, "/separate", separationGateway.Separate)
	handleRoute(GET, "/download/:session_id/:filename", func(c echo.Context) error {
		return separationGateway.Download(c, c.Param("session_id"), c.Param("filename"))
	})
	handleRoute(GET, "/sessions/:session_id", func(c echo.Context) error {
		return separationGateway.GetSession(c, c.Param("session_id"))
	})

	if config.StaticDir != "" {
		indexPath := filepath.Join(config.StaticDir, "index.html")
		handleRoute(GET, "/", func(c echo.Context) error {
			return c.File(indexPath)
		})
	}

	roots := workspaceManager.Roots()
	janitor := retention.NewJanitor(retention.Config{
		UploadRoot: roots.UploadRoot,
		OutputRoot: roots.OutputRoot,
		TTL:        config.SessionTTL,
		Interval:   config.SweepInterval,
	}, sessionStore)

	return App{
		echo:      e,
		port:      config.Port,
		janitor:   janitor,
		publisher: publisher,
	}
}

// Handler exposes the router so it can be served in-process
func (a *App) Handler() http.Handler {
	return a.echo
}

func (a *App) Start() error {
	if a.janitor != nil {
		a.janitor.Start()
	}

	log.WithField("port", a.port).Info("Starting server")

	err := a.echo.Start(fmt.Sprintf(":%d", a.port))
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	if a.janitor != nil {
		a.janitor.Stop()
	}

	if closer, ok := a.publisher.(*rabbitmq.QueuePublisher); ok {
		_ = closer.Close()
	}

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeSessionStore(config Config) sessionentity.Store {
	if config.SessionStore != nil {
		return config.SessionStore
	}

	if !config.DynamoConfig.Enabled() {
		log.Info("No DynamoDB configured, keeping sessions in memory")
		return sessionstorage.NewMemory()
	}

	return sessionstorage.NewDB(dynamolib.NewDynamoDBFromConfig(config.DynamoConfig))
}

func makePublisher(config Config, store sessionentity.Store) rabbitmq.Publisher {
	if config.Publisher != nil {
		return config.Publisher
	}

	if config.RabbitMQURL == "" {
		log.Info("No RabbitMQ configured, session events are dropped")
		return rabbitmq.NoopPublisher{}
	}

	// a worker can't look up sessions that only live in this process
	if _, inMemory := store.(*sessionstorage.Memory); inMemory {
		log.Warn("RabbitMQ is configured but sessions are kept in memory, archive jobs are disabled until DynamoDB is configured")
		return rabbitmq.NoopPublisher{}
	}

	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeSeparationGateway(config Config, workspaceManager workspace.Manager, store sessionentity.Store, publisher rabbitmq.Publisher) separationgateway.Gateway {
	var exec executor.Executor = executor.BinaryFileExecutor{}
	if config.Executor != nil {
		exec = config.Executor
	}

	separationPipeline := pipeline.NewPipeline(config.Pipeline, exec)
	usecase := separationusecase.NewUsecase(
		separationusecase.Config{SessionTTL: config.SessionTTL},
		workspaceManager,
		separationPipeline,
		store,
		publisher,
	)

	return separationgateway.NewGateway(usecase)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	origins := config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
