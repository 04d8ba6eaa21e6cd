package gateway

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/stem-splitter/src/server/api_error"
	"github.com/veedubyou/stem-splitter/src/server/internal/errors/api"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                   http.StatusInternalServerError,
	separationerrors.NoAudioFileCode:       http.StatusBadRequest,
	separationerrors.NoFileSelectedCode:    http.StatusBadRequest,
	separationerrors.UnsupportedFormatCode: http.StatusBadRequest,
	separationerrors.BadUploadCode:         http.StatusBadRequest,
	separationerrors.WorkspaceFaultCode:    http.StatusInternalServerError,
	separationerrors.SeparationFaultCode:   http.StatusInternalServerError,
	separationerrors.SessionNotFoundCode:   http.StatusNotFound,
	separationerrors.FileNotFoundCode:      http.StatusNotFound,
}

func StatusCode(code api.ErrorCode) int {
	statusCode, ok := httpStatusCodeMap[code]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", code)
		panic(msg)
	}

	return statusCode
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode := StatusCode(err.ErrorCode)

	if statusCode >= http.StatusInternalServerError && err.InternalError != nil {
		cerr.Log(cerr.Field("path", c.Path()).
			Field("error_code", string(err.ErrorCode)).
			Wrap(err.InternalError).Error("Request failed"))
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Error: err.UserMessage,
		Code:  string(err.ErrorCode),
	})
}

// HTTPErrorHandler renders errors raised by echo itself (unknown routes, bad methods)
// in the same shape as the rest of the API.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	statusCode := http.StatusInternalServerError
	message := http.StatusText(statusCode)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	}

	body := api_error.JSONAPIError{
		Error: message,
		Code:  string(api.DefaultErrorCode),
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(statusCode)
	} else {
		writeErr = c.JSON(statusCode, body)
	}

	if writeErr != nil {
		cerr.Log(cerr.Wrap(writeErr).Error("Failed to write error response"))
	}
}
