package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an article id is absent from a dataset.
var ErrNotFound = errors.New("article not found")

// ErrNoContent is returned when none of the articles of a merged summary could be fetched.
var ErrNoContent = errors.New("failed to fetch any article contents")

// UnsupportedDatasetError reports a country code outside the registry.
type UnsupportedDatasetError struct {
	Code string
}

func (e *UnsupportedDatasetError) Error() string {
	return fmt.Sprintf("unsupported country code %q", e.Code)
}

// InvalidFilterError reports a listing parameter that could not be used.
type InvalidFilterError struct {
	Field string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Field, e.Value)
}

// FetchError wraps a failure to retrieve or parse a remote page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GatewayError wraps a failure of the summarization service.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("summarization gateway: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
