package testing

import (
	"net/http"
	"net/http/httptest"
)

// Serve runs the request through the full router, middleware included
func Serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}
