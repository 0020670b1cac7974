package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ValidationError reports bad caller input. It is returned before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NetworkError means no response was received: timeout, DNS failure,
// refused or reset connection, or cancellation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "Network error: No response from TMDB API" }

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request hit its deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// RemoteError is a non-2xx response from the catalog service.
type RemoteError struct {
	StatusCode int
	Message    string // status_message from the body, if any
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("TMDB API Error: %d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		msg += " " + text
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// RequestError is a local failure building the request or reading its result.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "Error: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// translate maps the outcome of one HTTP exchange onto the error taxonomy.
// resp is consumed only when it carries a non-2xx status.
func translate(resp *http.Response, err error) error {
	if err != nil {
		var (
			ve *ValidationError
			ne *NetworkError
			re *RemoteError
			rq *RequestError
		)
		if errors.As(err, &ve) || errors.As(err, &ne) || errors.As(err, &re) || errors.As(err, &rq) {
			return err
		}
		if noResponse(err) {
			return &NetworkError{Err: err}
		}
		return &RequestError{Err: err}
	}

	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var st apiStatus
	if json.Unmarshal(body, &st) != nil || st.StatusMessage == "" {
		st.StatusMessage = strings.TrimSpace(string(body))
		if strings.HasPrefix(st.StatusMessage, "{") || strings.HasPrefix(st.StatusMessage, "<") {
			st.StatusMessage = ""
		}
	}
	return &RemoteError{StatusCode: resp.StatusCode, Message: st.StatusMessage}
}

// noResponse reports whether err means the request went out but nothing came back.
func noResponse(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// *url.Error satisfies net.Error itself, so look underneath it.
	inner := err
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return true
		}
		inner = ue.Err
	}

	var ne net.Error
	return errors.As(inner, &ne)
}

// Message returns the user-facing text for err: the message of the innermost
// catalog error, without the operation context added by wrapping.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		ne *NetworkError
		re *RemoteError
		rq *RequestError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ne):
		return ne.Error()
	case errors.As(err, &re):
		return re.Error()
	case errors.As(err, &rq):
		return rq.Error()
	}
	return err.Error()
}

// Cause returns err's text for logs. Unlike Message it keeps the underlying
// transport failure of a NetworkError, e.g. a timeout or a refused connection.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Err != nil {
		return err.Error() + ": " + ne.Err.Error()
	}
	return err.Error()
}
