package httpx

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response body is kept for the message.
const maxErrorBody = 4 << 10

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// CheckStatus returns a *StatusError if the response status is not 2xx.
//
// On error the body is read (up to a limit) into the error; closing it stays
// the caller's job.
func CheckStatus(response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	if err != nil {
		body = []byte("failed to read response body: " + err.Error())
	}
	return &StatusError{StatusCode: response.StatusCode, Body: string(body)}
}
