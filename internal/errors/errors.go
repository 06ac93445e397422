package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all fatal failure modes
type ErrorCode string

const (
	// ProjectRootUnreadable indicates the project root is missing or cannot be listed
	ProjectRootUnreadable ErrorCode = "PROJECT_ROOT_UNREADABLE"
	// InvalidChangeSet indicates the changed-file input could not be parsed
	InvalidChangeSet ErrorCode = "INVALID_CHANGE_SET"
	// ConfigInvalid indicates the configuration file failed to load or validate
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// CacheUnavailable indicates the specifier cache could not be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// GitUnavailable indicates git is missing or the root is not inside a work tree
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// TestFileNotFound indicates a requested test file is not part of the project
	TestFileNotFound ErrorCode = "TEST_FILE_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// exitCodes maps error codes to process exit statuses. Codes not listed exit with 1.
var exitCodes = map[ErrorCode]int{
	ProjectRootUnreadable: 2,
	InvalidChangeSet:      3,
	ConfigInvalid:         4,
}

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// TirError represents an error with a stable code, message, and suggestions
type TirError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewTirError creates a new TirError with the default suggested fixes for its code
func NewTirError(code ErrorCode, message string, cause error) *TirError {
	return &TirError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Errorf creates a TirError with a formatted message and no cause
func Errorf(code ErrorCode, format string, args ...interface{}) *TirError {
	return NewTirError(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *TirError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TirError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *TirError) WithDetails(details interface{}) *TirError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ProjectRootUnreadable: {
		{
			Command:     "tir affected --root <dir>",
			Description: "Point --root at an existing, readable project directory",
		},
	},
	InvalidChangeSet: {
		{
			Command:     "git diff --name-only <base> | tir affected --changes -",
			Description: "Supply one root-relative path per line",
		},
	},
	ConfigInvalid: {
		{
			Command:     "tir init --force",
			Description: "Rewrite .tir/config.toml with defaults",
		},
	},
	CacheUnavailable: {
		{
			Command:     "tir cache clear",
			Description: "Remove the specifier cache database",
		},
	},
	GitUnavailable: {
		{
			Command:     "git status",
			Description: "Verify the project root is inside a git work tree",
		},
		{
			Command:     "tir affected --changes <file>",
			Description: "Supply the changed-file list explicitly instead",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// CodeOf returns the code of the first TirError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var te *TirError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return InternalError
}

// ExitCode maps an error to the process exit status.
// A nil error is a completed analysis and always exits 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[CodeOf(err)]; ok {
		return code
	}
	return 1
}
