package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// W3C GeolocationPositionError codes
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// ReportedLocator returns what the device reported alongside the form: either a
// position, a W3C error code, or nothing when the device has no location API.
type ReportedLocator struct {
	Position     *Coordinate
	ErrorCode    int
	ErrorMessage string
}

func (r ReportedLocator) Acquire(ctx context.Context) (Coordinate, error) {
	if r.ErrorCode != 0 {
		var cause error
		if r.ErrorMessage != "" {
			cause = errors.New(r.ErrorMessage)
		}
		return Coordinate{}, record(NewError(kindForCode(r.ErrorCode), cause))
	}
	if r.Position == nil {
		return Coordinate{}, record(NewError(Unsupported, nil))
	}
	return normalize(*r.Position, nil)
}

func kindForCode(code int) Kind {
	switch code {
	case CodePermissionDenied:
		return PermissionDenied
	case CodePositionUnavailable:
		return PositionUnavailable
	case CodeTimeout:
		return Timeout
	default:
		return Unknown
	}
}

// HTTPLocator asks a position provider for the caller's location.
// The provider answers {"lat": .., "lng": ..}.
type HTTPLocator struct {
	Endpoint string
	Client   *retryablehttp.Client
}

type providerPosition struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *HTTPLocator) Acquire(ctx context.Context) (Coordinate, error) {
	if h == nil || h.Endpoint == "" || h.Client == nil {
		return Coordinate{}, record(NewError(Unsupported, nil))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.Endpoint, nil)
	if err != nil {
		return Coordinate{}, record(NewError(Unknown, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Coordinate{}, record(NewError(Timeout, ctx.Err()))
		}
		return Coordinate{}, record(NewError(PositionUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Coordinate{}, record(NewError(PermissionDenied, fmt.Errorf("provider returned %d", resp.StatusCode)))
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500:
		return Coordinate{}, record(NewError(PositionUnavailable, fmt.Errorf("provider returned %d", resp.StatusCode)))
	case resp.StatusCode != http.StatusOK:
		return Coordinate{}, record(NewError(Unknown, fmt.Errorf("provider returned %d", resp.StatusCode)))
	}

	var pos providerPosition
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		return Coordinate{}, record(NewError(PositionUnavailable, fmt.Errorf("decode provider response: %w", err)))
	}
	if pos.Lat == nil || pos.Lng == nil {
		return Coordinate{}, record(NewError(PositionUnavailable, errors.New("provider response has no position")))
	}

	return normalize(Coordinate{Latitude: *pos.Lat, Longitude: *pos.Lng}, nil)
}
