// internal/types.go - Common types for internal packages
package internal

import (
	"errors"
	"fmt"
	"strings"
)

// SourceType represents the type of boundary data source
type SourceType string

const (
	SourceTypeHTTP  SourceType = "http"
	SourceTypeLocal SourceType = "local"
)

// AreaType is an Indonesian administrative level
type AreaType string

const (
	AreaProvince AreaType = "province"
	AreaRegency  AreaType = "regency"
	AreaDistrict AreaType = "district"
	AreaVillage  AreaType = "village"
)

// AreaTypes lists every administrative level from the largest to the smallest
var AreaTypes = []AreaType{AreaProvince, AreaRegency, AreaDistrict, AreaVillage}

// ParseAreaType normalizes and validates an area type name
func ParseAreaType(s string) (AreaType, error) {
	t := AreaType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AreaTypes {
		if t == known {
			return t, nil
		}
	}
	return "", NewError(ErrorCodeValidation, fmt.Sprintf("unknown area type %q", s), nil)
}

// String returns the area type name
func (t AreaType) String() string {
	return string(t)
}

// Error represents application-specific errors
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new application error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ErrorCode constants for common error types
const (
	ErrorCodeNetwork    = "NETWORK_ERROR"
	ErrorCodeProcessing = "PROCESSING_ERROR"
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeConfig     = "CONFIG_ERROR"
	ErrorCodeNotFound   = "NOT_FOUND"
	ErrorCodeTimeout    = "TIMEOUT_ERROR"
	ErrorCodeFileSystem = "FILESYSTEM_ERROR"
	ErrorCodeGeometry   = "GEOMETRY_ERROR"
	ErrorCodeUpstream   = "UPSTREAM_ERROR"
)
