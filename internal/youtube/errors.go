package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrNotFound is returned when the catalog has no entry for an id.
var ErrNotFound = errors.New("youtube: not found")

// APIError wraps a transport, quota or decoding failure from the catalog
// API or the syndication feed.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of the underlying API error, or 0.
func (e *APIError) StatusCode() int {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) {
		return gerr.Code
	}
	return 0
}

// QuotaExceeded reports whether the API rejected the call for quota.
func (e *APIError) QuotaExceeded() bool {
	var gerr *googleapi.Error
	if !errors.As(e.Err, &gerr) || gerr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
			return true
		}
	}
	return false
}

// PreconditionError is returned when a caller breaks an input limit.
// No network call has been made when it is returned.
type PreconditionError struct {
	Op    string
	Limit int
	Got   int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("youtube: %s: got %d ids, limit is %d", e.Op, e.Got, e.Limit)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
