package reports

import (
	"strings"
	"time"
)

type Status string

const (
	StatusReported   Status = "reported"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReported, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DefaultSeverity is what a fresh draft starts with
const DefaultSeverity = SeverityMedium

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ParseSeverity normalises case and whitespace
func ParseSeverity(s string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(s)))
}

const MaxDescriptionLength = 1000

// Report is a persisted defect observation
type Report struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ImageURL    string    `json:"imageUrl"`
	Status      Status    `json:"status"`
	Votes       int       `json:"votes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment on a report, ordered oldest first
type Comment struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"reportId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actions tells a moderator which transition buttons apply to a report
type Actions struct {
	CanMarkInProgress bool `json:"canMarkInProgress"`
	CanMarkResolved   bool `json:"canMarkResolved"`
}

// ModerationItem is a report as shown in the moderation view
type ModerationItem struct {
	Report
	Actions Actions `json:"actions"`
}

// Filter selects reports in the moderation view
type Filter string

const FilterAll Filter = "all"

// Request DTOs

type CreateDraftRequest struct {
	Description string `json:"description" binding:"omitempty,max=1000"`
	Severity    string `json:"severity" binding:"omitempty,oneof=low medium high"`
}

type UpdateDraftRequest struct {
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Severity    *string `json:"severity" binding:"omitempty,oneof=low medium high"`
}

// LocationRequest carries what the device reported: a position, a W3C
// GeolocationPositionError code, or source=provider to ask the server-side provider.
type LocationRequest struct {
	Latitude     *float64 `json:"latitude" form:"latitude"`
	Longitude    *float64 `json:"longitude" form:"longitude"`
	ErrorCode    int      `json:"errorCode" form:"errorCode"`
	ErrorMessage string   `json:"errorMessage" form:"errorMessage"`
	Source       string   `json:"source" form:"source" binding:"omitempty,oneof=device provider"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

type VoteResponse struct {
	ReportID string `json:"reportId"`
	Votes    int    `json:"votes"`
}
