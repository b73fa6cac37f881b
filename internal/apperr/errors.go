// Package apperr holds the error taxonomy shared by the menu stores.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks the expected zero-rows condition on singleton lookups.
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("write not authorized")
	ErrReferenced   = errors.New("record is still referenced")
)

// FetchError is a failed read. Callers keep their last good cache.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError is a rejected insert, update or delete.
type WriteError struct {
	Op       string
	EntityID string
	Err      error
}

func (e *WriteError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.EntityID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// UploadError is a rejected object store write. Detail carries the
// message returned by the store, when there is one.
type UploadError struct {
	Path   string
	Detail string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upload %s: %s", e.Path, e.Detail)
	}
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Detail extracts the most user-presentable message from err.
func Detail(err error) string {
	var up *UploadError
	if errors.As(err, &up) && up.Detail != "" {
		return up.Detail
	}
	var we *WriteError
	if errors.As(err, &we) && we.Err != nil {
		return Detail(we.Err)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
