package api_error

// JSONAPIError is the body of every non-2xx response.
// Error carries the message meant for the client.
type JSONAPIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
