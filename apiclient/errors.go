package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
)

const maxErrorBody = 64 << 10

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Method     string
	URL        string
	// Message is the backend's "detail" when it sent one, else the status text.
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Unwrap maps 401 and 404 onto the shared sentinels.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return nil
	}
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// newError reads (and closes) the body of a failed response.
func newError(resp *http.Response) *Error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	e := &Error{
		StatusCode: resp.StatusCode,
		Body:       body,
		Message:    http.StatusText(resp.StatusCode),
	}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		e.URL = resp.Request.URL.String()
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && strings.TrimSpace(detail.Detail) != "" {
		e.Message = detail.Detail
	}
	return e
}
