package domain

import "errors"

var (
	// ErrSettingNotFound is returned when a settings record does not exist.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrModelNotInstalled signals that a named language model is absent and may be downloaded.
	ErrModelNotInstalled = errors.New("model not installed")

	// ErrModelUnavailable signals that a model could not be acquired for this process.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrUnknownBackend is returned for an unrecognised sentiment backend name.
	ErrUnknownBackend = errors.New("unknown sentiment backend")

	// ErrUnknownEvent is returned for a lifecycle event type nobody handles.
	ErrUnknownEvent = errors.New("unknown lifecycle event")

	// ErrInvalidPayload is returned when an event payload cannot be decoded.
	ErrInvalidPayload = errors.New("invalid event payload")
)
