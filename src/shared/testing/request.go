package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/onsi/gomega"
)

type RequestModifier func(r *http.Request)

type RequestModifiers []RequestModifier

func (r *RequestModifiers) Add(mods ...RequestModifier) {
	*r = append(*r, mods...)
}

func WithHeader(key string, value string) RequestModifier {
	return func(request *http.Request) {
		request.Header.Set(key, value)
	}
}

// FilePart is a single multipart field.
// A nil Content with a Filename still produces a file part with an empty body.
type FilePart struct {
	Field    string
	Filename string
	Content  []byte
}

type RequestFactory struct {
	Method  string
	Target  string
	JSONObj interface{}
	Files   []FilePart
	// Values are sent as plain multipart fields alongside Files
	Values map[string]string
	Mods   RequestModifiers
}

func (r RequestFactory) isMultipart() bool {
	return len(r.Files) > 0 || len(r.Values) > 0
}

func (r RequestFactory) multipartBody() (io.Reader, string) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for key, value := range r.Values {
		err := writer.WriteField(key, value)
		gomega.ExpectWithOffset(2, err).NotTo(gomega.HaveOccurred())
	}

	for _, file := range r.Files {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		gomega.ExpectWithOffset(2, err).NotTo(gomega.HaveOccurred())

		_, err = part.Write(file.Content)
		gomega.ExpectWithOffset(2, err).NotTo(gomega.HaveOccurred())
	}

	err := writer.Close()
	gomega.ExpectWithOffset(2, err).NotTo(gomega.HaveOccurred())

	return buf, writer.FormDataContentType()
}

func (r RequestFactory) make(reqMaker func(string, string, io.Reader) *http.Request) *http.Request {
	var body io.Reader
	contentType := ""

	switch {
	case r.isMultipart():
		body, contentType = r.multipartBody()

	case r.JSONObj != nil:
		buf := &bytes.Buffer{}
		err := json.NewEncoder(buf).Encode(r.JSONObj)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

		body = buf
		contentType = echo.MIMEApplicationJSON
	}

	request := reqMaker(r.Method, r.Target, body)

	if contentType != "" {
		request.Header.Set(echo.HeaderContentType, contentType)
	}

	for _, mod := range r.Mods {
		mod(request)
	}

	return request
}

func (r RequestFactory) MakeFake() *http.Request {
	return r.make(httptest.NewRequest)
}

func (r RequestFactory) Do() (*http.Response, error) {
	makeRealRequest := func(method string, target string, body io.Reader) *http.Request {
		return ExpectSuccess(http.NewRequest(method, target, body))
	}

	req := r.make(makeRealRequest)
	return http.DefaultClient.Do(req)
}
