package core

import "errors"

var (
	ErrNotInitialized    = errors.New("chart not initialized")
	ErrBackendCreate     = errors.New("chart backend create failed")
	ErrStaleGeneration   = errors.New("stale chart generation")
	ErrNotRendered       = errors.New("chart has not been rendered")
	ErrDestroyed         = errors.New("chart adapter destroyed")
	ErrUnsupported       = errors.New("operation not supported by chart backend")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnknownChartType  = errors.New("unknown chart type")
	ErrUnknownBackend    = errors.New("unknown chart backend")
)
