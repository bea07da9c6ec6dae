// Package importjob runs snapshot imports asynchronously and tracks each
// request through INICIADO, PROCESSANDO and a terminal CONCLUIDO or ERRO.
package importjob

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStatusNotFound indicates no status record exists for a request id.
	ErrStatusNotFound = errors.New("import status not found")

	// ErrDuplicateRequest indicates the request id was used before.
	ErrDuplicateRequest = errors.New("request id already used")

	// ErrImportInProgress indicates another import has not finished yet.
	ErrImportInProgress = errors.New("another import is in progress")

	// ErrQueueFull indicates the job queue cannot take more work.
	ErrQueueFull = errors.New("import queue is full")

	// ErrQueueClosed indicates the queue no longer accepts jobs.
	ErrQueueClosed = errors.New("import queue is closed")

	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid import status transition")

	// ErrEmptyRequestID indicates Submit was called without a request id.
	ErrEmptyRequestID = errors.New("request id is required")

	// ErrInterrupted is recorded for jobs that were pending when the
	// process stopped.
	ErrInterrupted = errors.New("import interrupted before completion")
)

// PanicError carries a value recovered from a panicking import job.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("import job panicked: %v", e.Value)
}

func (e *PanicError) Kind() string { return "PanicError" }

type kinded interface {
	Kind() string
}

// errorDetail renders err as "<Kind>: <message>" for the status record.
// Errors without a Kind method are named by their dynamic type.
func errorDetail(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind() + ": " + err.Error()
	}
	return typeName(err) + ": " + err.Error()
}

func typeName(err error) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	switch name {
	case "errors.errorString", "fmt.wrapError", "fmt.wrapErrors", "errors.joinError":
		return "Error"
	}
	return name
}
