package separationgateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/stem-splitter/src/server/internal/errors/api"
	"github.com/veedubyou/stem-splitter/src/server/internal/errors/gateway"
	"github.com/veedubyou/stem-splitter/src/server/internal/lib/request"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/errors"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/usecase"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
)

const AudioField = "audio"

type Gateway struct {
	usecase separationusecase.Usecase
}

func NewGateway(usecase separationusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) Separate(c echo.Context) error {
	ctx := request.Context(c)

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return gateway.ErrorResponse(c, noAudioFile(err))
		}

		return gateway.ErrorResponse(c, api.CommitError(errors.Wrap(err, "Failed to parse multipart form"),
			separationerrors.BadUploadCode,
			"The upload could not be read"))
	}
	defer func() {
		_ = form.RemoveAll()
	}()

	files := form.File[AudioField]
	if len(files) == 0 {
		// an empty file input arrives as a plain value without a filename
		if _, sentEmpty := form.Value[AudioField]; sentEmpty {
			return gateway.ErrorResponse(c, api.CommitError(cerr.Error("Audio field has no file"),
				separationerrors.NoFileSelectedCode,
				separationerrors.NoFileSelectedMsg))
		}

		return gateway.ErrorResponse(c, noAudioFile(cerr.Error("No audio field in form")))
	}

	fileHeader := files[0]
	if apiErr := separationusecase.ValidateFilename(fileHeader.Filename); apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return gateway.ErrorResponse(c, api.CommitError(errors.Wrap(err, "Failed to open uploaded file"),
			separationerrors.BadUploadCode,
			"The upload could not be read"))
	}
	defer file.Close()

	response, apiErr := g.usecase.Separate(ctx, separationusecase.Upload{
		Filename: fileHeader.Filename,
		Content:  file,
	})
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, response)
}

func (g Gateway) Download(c echo.Context, sessionID string, filename string) error {
	ctx := request.Context(c)

	file, apiErr := g.usecase.ResolveDownload(ctx, sessionID, filename)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.Attachment(file.Path, file.AttachmentName)
}

func (g Gateway) GetSession(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	session, apiErr := g.usecase.GetSession(ctx, sessionID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, session)
}

func noAudioFile(err error) *api.Error {
	return api.CommitError(err,
		separationerrors.NoAudioFileCode,
		separationerrors.NoAudioFileMsg)
}
