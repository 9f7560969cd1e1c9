// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import "errors"

// Package errors for layer backends.
var (
	// ErrNoBackendAvailable is returned when no layer backend is
	// registered or usable on this system.
	ErrNoBackendAvailable = errors.New("compositor: no layer backend available")

	// ErrBackendNotFound is returned when the named backend is not
	// registered.
	ErrBackendNotFound = errors.New("compositor: backend not found")

	// ErrBackendUnavailable is returned when the named backend is
	// registered but not usable on this system.
	ErrBackendUnavailable = errors.New("compositor: backend unavailable")

	// ErrLayerReleased is returned when operating on a released layer.
	ErrLayerReleased = errors.New("compositor: layer has been released")

	// ErrLayerInvalidated is returned when presenting to a layer whose
	// backing surface was destroyed or reconfigured externally.
	ErrLayerInvalidated = errors.New("compositor: layer has been invalidated")

	// ErrNotConfigured is returned when drawables are requested or
	// presented before Configure.
	ErrNotConfigured = errors.New("compositor: layer not configured")

	// ErrInvalidSlot is returned when a present or drawable request
	// names a slot outside the configured drawable count.
	ErrInvalidSlot = errors.New("compositor: invalid drawable slot")
)

// IsSurfaceDead reports whether err means the layer's backing surface
// is gone for good, as opposed to a recoverable request error.
func IsSurfaceDead(err error) bool {
	return errors.Is(err, ErrLayerReleased) || errors.Is(err, ErrLayerInvalidated)
}
