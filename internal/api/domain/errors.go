package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrMetricNotFound is returned when a metric cannot be found.
	ErrMetricNotFound = errors.New("metric not found")

	// ErrMetricExists is returned when creating a metric whose name is
	// already taken. Metric names are unique.
	ErrMetricExists = errors.New("metric already exists")

	// ErrBlobNotFound is returned when a blob reference cannot be found.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrRunNotFound is returned when a delivery run cannot be found.
	ErrRunNotFound = errors.New("delivery run not found")
)
