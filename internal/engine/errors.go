package engine

import "errors"

var (
	// ErrBackendCapability indicates the backend ignored output schema
	// constraints during the connection probe.
	ErrBackendCapability = errors.New("backend does not support schema constraints")
	// ErrInvalidState indicates a document whose view is outside the known set.
	ErrInvalidState = errors.New("invalid state")
	// ErrBusy is returned when a call overlaps a transition in flight.
	ErrBusy = errors.New("engine is busy")
	// ErrBackendRequired indicates a missing backend dependency.
	ErrBackendRequired = errors.New("backend is required")
	// ErrPluginNameRequired indicates a plugin without a name.
	ErrPluginNameRequired = errors.New("plugin name is required")
	// ErrPluginAlreadyRegistered indicates a duplicate plugin registration.
	ErrPluginAlreadyRegistered = errors.New("plugin already registered")
	// ErrPluginNotFound indicates an unknown plugin name.
	ErrPluginNotFound = errors.New("plugin is not registered")
)
