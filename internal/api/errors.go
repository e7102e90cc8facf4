// Package api provides the REST client for the file platform.
package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired indicates the server rejected the bearer token.
// The session layer has already been expired by the time callers see
// this; retrying without a fresh login cannot succeed.
var ErrSessionExpired = errors.New("session expired")

// ErrItemAlreadyExists indicates an item with the same name already
// exists in the target folder.
var ErrItemAlreadyExists = errors.New("item already exists")

// ErrNotFound indicates the requested file, folder, user, or group
// does not exist (or is not visible to the caller).
var ErrNotFound = errors.New("not found")

// StatusError carries an unexpected HTTP status and the response body
// snippet for diagnostics.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// IsItemExistsError checks if an error indicates a duplicate item.
//
// Detects conflicts from multiple sources:
//  1. Wrapped ErrItemAlreadyExists
//  2. HTTP 409 Conflict status
//  3. Error messages containing "already exists", "duplicate", or "conflict"
func IsItemExistsError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrItemAlreadyExists) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 409 {
		return true
	}

	errStr := strings.ToLower(err.Error())

	conflictIndicators := []string{
		"already exists",
		"duplicate",
		"conflict",
		"name already in use",
	}

	for _, indicator := range conflictIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// IsNotFoundError checks if an error indicates a missing item.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotFound) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
