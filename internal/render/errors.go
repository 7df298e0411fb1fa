package render

import "errors"

// Failure classes. Every error returned by Resolve or Run wraps exactly
// one of these.
var (
	ErrConfig     = errors.New("config error")
	ErrLaunch     = errors.New("launch error")
	ErrNavigation = errors.New("navigation error")
	ErrConfigure  = errors.New("configure error")
	ErrFrame      = errors.New("frame error")
	ErrCapture    = errors.New("capture error")
)
