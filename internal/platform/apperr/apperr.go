// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for the seeder.

It provides a rich error type that bridges the gap between low-level
storage/network errors and the pipeline's error taxonomy.

Architecture:

  - AppError: A struct containing a machine-readable Code and a human-readable message.
  - Recoverability: Record-level errors (validation, resolution, download) are
    aggregated into the execution report; phase-level errors propagate and
    abort the current phase.
  - Context: Each error carries structured context (attempted lookup keys,
    source file, batch index) so the report stays actionable.

Every error that leaves a pipeline component should be wrapped as an [AppError]
to ensure consistent reporting.
*/
package apperr

import (
	"errors"
	"fmt"
)

// # Error Codes

const (
	// CodeValidation marks a record that failed structural validation.
	CodeValidation = "VALIDATION_ERROR"
	// CodeResolution marks a dependent record whose foreign key could not be
	// matched against any known ID-map variant.
	CodeResolution = "RESOLUTION_ERROR"
	// CodeDownload marks a remote asset that could not be retrieved.
	CodeDownload = "DOWNLOAD_ERROR"
	// CodeBatchWrite marks a store-level failure while writing a batch.
	// Unlike the record-level codes above, it aborts the current phase.
	CodeBatchWrite = "BATCH_WRITE_ERROR"
	// CodeSource marks an input file that could not be read or parsed.
	CodeSource = "SOURCE_ERROR"
	// CodeInternal marks an unexpected failure inside the pipeline.
	CodeInternal = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the seeding pipeline.
//
// It carries a machine-readable code, a human-readable message, optional
// field-level details, and free-form context for the execution report.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "VALIDATION_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description of the failure.
	Message string `json:"error"`
	// Cause is the underlying error, used for logging and wrapping.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR entries.
	Details []FieldError `json:"details,omitempty"`
	// Context carries structured metadata (source file, attempted keys, batch
	// index) that is serialized into the execution report.
	Context map[string]any `json:"context,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// With attaches a context key/value pair and returns the error for chaining.
func (e *AppError) With(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// # Record-Level Errors (recovered and aggregated)

// Validation creates a VALIDATION_ERROR with optional per-field details.
func Validation(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Details: details,
	}
}

// Resolution creates a RESOLUTION_ERROR for a reference that matched no known
// ID-map variant. The attempted lookup keys are recorded for the report.
func Resolution(entity, reference string, attempted []string) *AppError {
	e := &AppError{
		Code:    CodeResolution,
		Message: fmt.Sprintf("could not resolve %s reference %q", entity, reference),
	}
	return e.With("reference", reference).With("attempted_keys", attempted)
}

// Download creates a DOWNLOAD_ERROR for a remote asset fetch failure.
func Download(url string, cause error) *AppError {
	e := &AppError{
		Code:    CodeDownload,
		Message: "failed to download asset",
		Cause:   cause,
	}
	return e.With("url", url)
}

// Source creates a SOURCE_ERROR for an unreadable or malformed input file.
func Source(path string, cause error) *AppError {
	e := &AppError{
		Code:    CodeSource,
		Message: "failed to load source file",
		Cause:   cause,
	}
	return e.With("path", path)
}

// # Phase-Level Errors (abort the current phase)

// BatchWrite creates a BATCH_WRITE_ERROR wrapping a store-level failure.
func BatchWrite(table string, batch int, cause error) *AppError {
	e := &AppError{
		Code:    CodeBatchWrite,
		Message: fmt.Sprintf("batch write to %s failed", table),
		Cause:   cause,
	}
	return e.With("table", table).With("batch", batch)
}

// Internal creates an INTERNAL_ERROR wrapping an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsRecordLevel reports whether err is a per-record error that the pipeline
// recovers from (validation, resolution, download, source). Phase-level and
// unknown errors return false and must propagate.
func IsRecordLevel(err error) bool {
	ae := As(err)
	if ae == nil {
		return false
	}
	switch ae.Code {
	case CodeValidation, CodeResolution, CodeDownload, CodeSource:
		return true
	}
	return false
}
