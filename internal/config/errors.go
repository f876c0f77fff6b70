package config

import "errors"

var (
	// ErrMissingURL is returned when no seed URL is provided
	ErrMissingURL = errors.New("url is required")
	// ErrInvalidURLScheme is returned when the seed URL is not http(s)
	ErrInvalidURLScheme = errors.New("url must start with http:// or https://")
	// ErrInvalidMaxDepth is returned when max_depth is negative
	ErrInvalidMaxDepth = errors.New("max_depth must be zero or greater")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrEmptyFileName is returned when the output file name is empty
	ErrEmptyFileName = errors.New("file_name cannot be empty")
	// ErrInvalidLogLevel is returned when the log level is not recognized
	ErrInvalidLogLevel = errors.New("log_level must be debug, info, warn or error")
)
