package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
)

// Coordinate is a position in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude" example:"12.9253"`
	Longitude float64 `json:"longitude" example:"77.6164"`
}

// Valid reports whether both components are inside their ranges
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

type Kind int

const (
	Unknown Kind = iota
	Unsupported
	PermissionDenied
	PositionUnavailable
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:             "UNKNOWN",
	Unsupported:         "UNSUPPORTED",
	PermissionDenied:    "PERMISSION_DENIED",
	PositionUnavailable: "POSITION_UNAVAILABLE",
	Timeout:             "TIMEOUT",
}

var kindMessages = map[Kind]string{
	Unknown:             "An unknown error occurred while retrieving location.",
	Unsupported:         "Geolocation is not supported by your browser.",
	PermissionDenied:    "Permission to access location was denied. Please enable location services.",
	PositionUnavailable: "Location information is unavailable. Try again later.",
	Timeout:             "The request to get your location timed out. Please try again.",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// Message is the text shown to the reporter
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[Unknown]
}

// Error is the single failure type of a location capture
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
	}
	return e.Kind.Message()
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind from err, Unknown when err is not a *Error
func KindOf(err error) Kind {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Kind
	}
	return Unknown
}

// Locator acquires one position. Every call is independent and yields either
// a coordinate or a *Error.
type Locator interface {
	Acquire(ctx context.Context) (Coordinate, error)
}

// LocatorFunc adapts a function to Locator
type LocatorFunc func(ctx context.Context) (Coordinate, error)

func (f LocatorFunc) Acquire(ctx context.Context) (Coordinate, error) { return f(ctx) }

// WithTimeout bounds the wait of any locator. An expired deadline becomes Timeout.
func WithTimeout(l Locator, d time.Duration) Locator {
	return LocatorFunc(func(ctx context.Context) (Coordinate, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		type result struct {
			coord Coordinate
			err   error
		}
		done := make(chan result, 1)
		go func() {
			c, err := l.Acquire(ctx)
			done <- result{c, err}
		}()

		select {
		case r := <-done:
			return normalize(r.coord, r.err)
		case <-ctx.Done():
			return Coordinate{}, record(NewError(Timeout, ctx.Err()))
		}
	})
}

// normalize coerces any locator result into the taxonomy
func normalize(c Coordinate, err error) (Coordinate, error) {
	if err != nil {
		var geoErr *Error
		switch {
		case errors.As(err, &geoErr):
			// already counted where it was created
			return Coordinate{}, geoErr
		case errors.Is(err, context.DeadlineExceeded):
			return Coordinate{}, record(NewError(Timeout, err))
		default:
			return Coordinate{}, record(NewError(Unknown, err))
		}
	}
	if !c.Valid() {
		return Coordinate{}, record(NewError(PositionUnavailable, fmt.Errorf("coordinate out of range (%v, %v)", c.Latitude, c.Longitude)))
	}
	return c, nil
}

func record(err *Error) *Error {
	metrics.GeolocationFailures.WithLabelValues(err.Kind.String()).Inc()
	return err
}
