package reports

import (
	"strconv"
	"strings"

	"github.com/xyz-asif/roadwatch/internal/features/geo"
)

func ValidateCreateCommentRequest(req *CreateCommentRequest) error {
	req.Content = strings.TrimSpace(req.Content)

	if req.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if len([]rune(req.Content)) > 1000 {
		return &ValidationError{Field: "content", Message: "content must be 1000 characters or less"}
	}
	return nil
}

// ParseUpdateStatus checks the target of a status change
func ParseUpdateStatus(req *UpdateStatusRequest) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Message: "must be one of reported, in-progress, resolved"}
	}
	return status, nil
}

// ParseSeverityField accepts an empty value as "leave unchanged"
func ParseSeverityField(raw string) (*Severity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	s := ParseSeverity(raw)
	if !s.Valid() {
		return nil, &ValidationError{Field: "severity", Message: "must be one of low, medium, high"}
	}
	return &s, nil
}

// Locator turns a location request into the locator that resolves it.
// source=provider asks the server-side provider.
func (req LocationRequest) Locator(provider geo.Locator) (geo.Locator, error) {
	if req.Source == "provider" {
		return provider, nil
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, &ValidationError{Field: "location", Message: "latitude and longitude must be sent together"}
	}

	loc := geo.ReportedLocator{ErrorCode: req.ErrorCode, ErrorMessage: req.ErrorMessage}
	if req.Latitude != nil {
		loc.Position = &geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	return loc, nil
}

// HasLocation reports whether the request carries anything to resolve
func (req LocationRequest) HasLocation() bool {
	return req.Source == "provider" || req.Latitude != nil || req.Longitude != nil || req.ErrorCode != 0
}

func parseFormFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "must be a number"}
	}
	return &f, nil
}
