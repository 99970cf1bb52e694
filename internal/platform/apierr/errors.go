// Package apierr implements the error taxonomy from the scheduling engine's
// error handling design: a small set of typed errors distinguishing
// synchronous validation failures from task-local job failures.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an AppError for HTTP status mapping and logging.
type Type string

const (
	// TypeInvalidWorkflow is a definition-time validation failure. Surfaced
	// synchronously to the HTTP caller as 400; no workflow rows are created.
	TypeInvalidWorkflow Type = "InvalidWorkflow"
	// TypeUnknownTaskType is a registry miss at dispatch time. Should not
	// occur if validation ran; treated as a job failure.
	TypeUnknownTaskType Type = "UnknownTaskType"
	// TypeJobError is any failure within a job.
	TypeJobError Type = "JobError"
	// TypeDependencyNotSatisfied is the runner's defensive dependency check.
	TypeDependencyNotSatisfied Type = "DependencyNotSatisfied"
	// TypeReportPrematurelyRequested is the report generator's defensive check.
	TypeReportPrematurelyRequested Type = "ReportPrematurelyRequested"
	// TypeNotFound means the requested entity does not exist.
	TypeNotFound Type = "NotFound"
	// TypeInternal is an unclassified failure.
	TypeInternal Type = "Internal"
)

// AppError is a typed error carrying enough information to render an HTTP
// response without the caller needing to inspect the underlying cause.
type AppError struct {
	Type    Type
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an AppError of the given type.
func New(t Type, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message}
}

// Wrap attaches a cause to an existing AppError, returning the same pointer.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// InvalidWorkflow builds a TypeInvalidWorkflow error. HTTP responses for this
// type carry the "Invalid workflow:" prefix spec'd for the POST /analysis
// endpoint.
func InvalidWorkflow(format string, args ...interface{}) *AppError {
	return New(TypeInvalidWorkflow, "INVALID_WORKFLOW", fmt.Sprintf(format, args...))
}

// UnknownTaskType builds a TypeUnknownTaskType error.
func UnknownTaskType(taskType string) *AppError {
	return New(TypeUnknownTaskType, "UNKNOWN_TASK_TYPE", fmt.Sprintf("no job registered for task type %q", taskType))
}

// JobError builds a TypeJobError error.
func JobError(format string, args ...interface{}) *AppError {
	return New(TypeJobError, "JOB_ERROR", fmt.Sprintf(format, args...))
}

// DependencyNotSatisfied builds the runner's defensive-check error.
func DependencyNotSatisfied(taskID string) *AppError {
	return New(TypeDependencyNotSatisfied, "DEPENDENCY_NOT_SATISFIED",
		fmt.Sprintf("dependency of task %s has not completed", taskID))
}

// ReportPrematurelyRequested builds the report generator's defensive-check error.
func ReportPrematurelyRequested(workflowID string) *AppError {
	return New(TypeReportPrematurelyRequested, "REPORT_PREMATURE",
		fmt.Sprintf("workflow %s has incomplete preceding tasks", workflowID))
}

// NotFound builds a TypeNotFound error.
func NotFound(format string, args ...interface{}) *AppError {
	return New(TypeNotFound, "NOT_FOUND", fmt.Sprintf(format, args...))
}

// Internalf builds a TypeInternal error.
func Internalf(format string, args ...interface{}) *AppError {
	return New(TypeInternal, "INTERNAL_ERROR", fmt.Sprintf(format, args...))
}

// As extracts an *AppError from err, if any wraps one.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusCode maps an AppError's Type to an HTTP status code.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case TypeInvalidWorkflow:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
