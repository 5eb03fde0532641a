package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph store errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeParse represents tabular parsing errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeQuery represents query resolution errors
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeSnapshot represents snapshot encode/decode errors
	ErrorTypeSnapshot ErrorType = "snapshot"
	// ErrorTypeFetch represents dataset download errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type so wrappers embedding BaseError
// are classifiable without knowing their concrete type
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Store Errors

// ErrDuplicateNode is returned when a (type, id) pair is inserted twice.
// Callers treat it as a no-op signal; Index carries the existing position.
type ErrDuplicateNode struct {
	*BaseError
	NodeType string
	NodeID   int64
	Index    int
}

func NewDuplicateNode(nodeType string, nodeID int64, index int) *ErrDuplicateNode {
	return &ErrDuplicateNode{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("duplicate node: %s/%d", nodeType, nodeID), nil),
		NodeType:  nodeType,
		NodeID:    nodeID,
		Index:     index,
	}
}

// ErrUnknownNode is returned when an operation references a node index
// that was never assigned
type ErrUnknownNode struct {
	*BaseError
	Index int
}

func NewUnknownNode(index int) *ErrUnknownNode {
	return &ErrUnknownNode{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("unknown node index: %d", index), nil),
		Index:     index,
	}
}

// Parse Errors

// ErrRowParseFailed is returned when a single table row cannot be turned
// into a record; bulk loaders count these and continue
type ErrRowParseFailed struct {
	*BaseError
	File   string
	Line   int
	Reason string
}

func NewRowParseFailed(file string, line int, reason string) *ErrRowParseFailed {
	return &ErrRowParseFailed{
		BaseError: NewBaseError(ErrorTypeParse, fmt.Sprintf("%s line %d: %s", file, line, reason), nil),
		File:      file,
		Line:      line,
		Reason:    reason,
	}
}

// ErrColumnMissing is returned when a table lacks a required header
// column; this is structural and fails the whole table load
type ErrColumnMissing struct {
	*BaseError
	File   string
	Column string
}

func NewColumnMissing(file, column string) *ErrColumnMissing {
	return &ErrColumnMissing{
		BaseError: NewBaseError(ErrorTypeParse, fmt.Sprintf("%s: missing required column %q", file, column), nil),
		File:      file,
		Column:    column,
	}
}

// Query Errors

// ErrNameNotFound is returned when no node matches a queried name
type ErrNameNotFound struct {
	*BaseError
	Name string
}

func NewNameNotFound(name string) *ErrNameNotFound {
	return &ErrNameNotFound{
		BaseError: NewBaseError(ErrorTypeQuery, fmt.Sprintf("no node named %q", name), nil),
		Name:      name,
	}
}

// ErrNoPath is returned when two resolved nodes have no connecting path
type ErrNoPath struct {
	*BaseError
	From string
	To   string
}

func NewNoPath(from, to string) *ErrNoPath {
	return &ErrNoPath{
		BaseError: NewBaseError(ErrorTypeQuery, fmt.Sprintf("no path between %q and %q", from, to), nil),
		From:      from,
		To:        to,
	}
}

// Snapshot Errors

// ErrSnapshotCorrupted is returned when a snapshot fails its magic,
// version, or checksum validation
type ErrSnapshotCorrupted struct {
	*BaseError
	Path   string
	Reason string
}

func NewSnapshotCorrupted(path, reason string, err error) *ErrSnapshotCorrupted {
	return &ErrSnapshotCorrupted{
		BaseError: NewBaseError(ErrorTypeSnapshot, fmt.Sprintf("corrupt snapshot %s: %s", path, reason), err),
		Path:      path,
		Reason:    reason,
	}
}

// Fetch Errors

// ErrFetchFailed is returned when downloading a dataset file fails
type ErrFetchFailed struct {
	*BaseError
	File string
	URL  string
}

func NewFetchFailed(file, url string, err error) *ErrFetchFailed {
	return &ErrFetchFailed{
		BaseError: NewBaseError(ErrorTypeFetch, fmt.Sprintf("failed to fetch %s", file), err),
		File:      file,
		URL:       url,
	}
}

// ErrFetchSizeMismatch is returned when a downloaded file's byte size
// does not match the manifest
type ErrFetchSizeMismatch struct {
	*BaseError
	File     string
	Expected int64
	Actual   int64
}

func NewFetchSizeMismatch(file string, expected, actual int64) *ErrFetchSizeMismatch {
	return &ErrFetchSizeMismatch{
		BaseError: NewBaseError(ErrorTypeFetch, fmt.Sprintf("%s: expected %d bytes, got %d", file, expected, actual), nil),
		File:      file,
		Expected:  expected,
		Actual:    actual,
	}
}

// ErrFetchHTMLResponse is returned when the catalog serves an HTML page
// (login wall, error page) instead of file bytes
type ErrFetchHTMLResponse struct {
	*BaseError
	File  string
	Title string
}

func NewFetchHTMLResponse(file, title string) *ErrFetchHTMLResponse {
	return &ErrFetchHTMLResponse{
		BaseError: NewBaseError(ErrorTypeFetch, fmt.Sprintf("%s: got HTML page %q instead of file data", file, title), nil),
		File:      file,
		Title:     title,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ Category() ErrorType }); ok {
			return typed.Category() == errType
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is worth retrying at a higher layer.
// Only transport-level fetch failures qualify; size mismatches and HTML
// responses repeat identically on retry
func IsRetryable(err error) bool {
	switch err.(type) {
	case *ErrFetchSizeMismatch, *ErrFetchHTMLResponse:
		return false
	case *ErrFetchFailed:
		return true
	}
	return false
}
