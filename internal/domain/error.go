package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeVersionNotFound     ErrorCode = "VERSION_NOT_FOUND"
	CodeCatalogUnavailable  ErrorCode = "CATALOG_UNAVAILABLE"
	CodeMetadataInvalid     ErrorCode = "METADATA_INVALID"
	CodeExternalToolMissing ErrorCode = "EXTERNAL_TOOL_MISSING"
	CodeInternal            ErrorCode = "INTERNAL"
)

// Sentinel errors for the common caller-facing conditions.
var (
	ErrNotFound            = errors.New("tool not found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrCatalogUnavailable  = errors.New("container catalog unavailable")
	ErrExternalToolMissing = errors.New("external tool missing")
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
		}
	}
	return E(code, op, "", err)
}

// CodeFrom maps an error to its code, including the sentinel errors.
func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrVersionNotFound):
		return CodeVersionNotFound, true
	case errors.Is(err, ErrCatalogUnavailable):
		return CodeCatalogUnavailable, true
	case errors.Is(err, ErrExternalToolMissing):
		return CodeExternalToolMissing, true
	default:
		return "", false
	}
}
