package notification

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies what produced a notification.
type Type string

const (
	TypeWelcome         Type = "welcome"
	TypeProfileUpdate   Type = "profile_update"
	TypeAccountDeletion Type = "account_deletion"
	TypeMLPrediction    Type = "ml_prediction"
	TypeRecommendations Type = "recommendations"
	TypeDataProcessing  Type = "data_processing"
	TypeSystemAlert     Type = "system_alert"
)

// Valid reports whether t belongs to the closed set of notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeWelcome, TypeProfileUpdate, TypeAccountDeletion, TypeMLPrediction,
		TypeRecommendations, TypeDataProcessing, TypeSystemAlert:
		return true
	}
	return false
}

// Priority represents the notification priority level.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Notification is a user-facing record. Everything except Read and ReadAt is
// immutable once created.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  Priority       `json:"priority"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
}

// CreateInput carries the caller-supplied fields of a new notification.
type CreateInput struct {
	UserID   string         `json:"userId"`
	Type     Type           `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority Priority       `json:"priority,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks required fields and enum membership.
// The returned error is a *ValidationError or nil.
func (in CreateInput) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(in.UserID) == "" {
		verr.Add("userId", "is required")
	}
	switch {
	case in.Type == "":
		verr.Add("type", "is required")
	case !in.Type.Valid():
		verr.Add("type", "is not a known notification type")
	}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		verr.Add("message", "is required")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		verr.Add("priority", "must be one of low, normal, high, critical")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// build turns validated input into a fresh unread record with a new id.
func build(in CreateInput, now time.Time) Notification {
	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	var metadata map[string]any
	if len(in.Metadata) > 0 {
		metadata = maps.Clone(in.Metadata)
	}
	return Notification{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Priority:  priority,
		Metadata:  metadata,
		CreatedAt: now,
	}
}

// clone returns a copy that shares no mutable state with n.
func (n Notification) clone() Notification {
	if n.Metadata != nil {
		n.Metadata = maps.Clone(n.Metadata)
	}
	if n.ReadAt != nil {
		readAt := *n.ReadAt
		n.ReadAt = &readAt
	}
	return n
}
