package dispatch

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/dispatch/pkg/notification"
)

const (
	TopicUserEvents   = "user-events"
	TopicMLEvents     = "ml-events"
	TopicDataEvents   = "data-events"
	TopicSystemAlerts = "system-alerts"
)

// Topics lists every topic the router consumes.
func Topics() []string {
	return []string{TopicUserEvents, TopicMLEvents, TopicDataEvents, TopicSystemAlerts}
}

type routeKey struct {
	topic     string
	eventType string
}

type renderFunc func(p eventPayload, platform string) (title, message string, metadata map[string]any)

type template struct {
	typ      notification.Type
	priority notification.Priority
	render   renderFunc
}

var templates = map[routeKey]template{
	{TopicUserEvents, "USER_CREATED"}: {
		typ: notification.TypeWelcome, priority: notification.PriorityNormal,
		render: func(p eventPayload, platform string) (string, string, map[string]any) {
			name := p.Username
			if name == "" {
				name = "there"
			}
			return "Welcome to " + platform + "!",
				fmt.Sprintf("Hi %s, your account has been created successfully.", name),
				userMetadata(p)
		},
	},
	{TopicUserEvents, "USER_UPDATED"}: {
		typ: notification.TypeProfileUpdate, priority: notification.PriorityLow,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			return "Profile Updated", "Your profile has been updated successfully.", userMetadata(p)
		},
	},
	{TopicUserEvents, "USER_DELETED"}: {
		typ: notification.TypeAccountDeletion, priority: notification.PriorityHigh,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			return "Account Deleted", "Your account has been deleted. We're sorry to see you go.", userMetadata(p)
		},
	},
	{TopicMLEvents, "prediction_made"}: {
		typ: notification.TypeMLPrediction, priority: notification.PriorityNormal,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			model := humanize(p.Data.ModelName)
			if model == "" {
				model = "our model"
			}
			return "Prediction Ready",
				fmt.Sprintf("Your prediction from %s is ready.", model),
				compact(map[string]any{
					"model_name": p.Data.ModelName,
					"prediction": p.Data.Prediction,
					"service":    p.Service,
				})
		},
	},
	{TopicMLEvents, "recommendations_generated"}: {
		typ: notification.TypeRecommendations, priority: notification.PriorityNormal,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			n := p.recommendationsCount()
			return "New Recommendations",
				fmt.Sprintf("We have %d new recommendations for you.", n),
				compact(map[string]any{
					"recommendations_count": n,
					"service":               p.Service,
				})
		},
	},
	{TopicDataEvents, "data_processing_complete"}: {
		typ: notification.TypeDataProcessing, priority: notification.PriorityNormal,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			return "Data Processing Complete",
				fmt.Sprintf("Your %s data has been processed successfully.", p.dataType()),
				dataMetadata(p)
		},
	},
	{TopicDataEvents, "data_processing_failed"}: {
		typ: notification.TypeDataProcessing, priority: notification.PriorityHigh,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			md := dataMetadata(p)
			if reason := firstNonEmpty(p.Reason, p.Data.Error); reason != "" {
				md["reason"] = reason
			}
			return "Data Processing Failed",
				fmt.Sprintf("We could not process your %s data.", p.dataType()),
				md
		},
	},
	{TopicDataEvents, "DATA_INGESTED"}: {
		typ: notification.TypeDataProcessing, priority: notification.PriorityLow,
		render: func(p eventPayload, _ string) (string, string, map[string]any) {
			return "Data Received",
				fmt.Sprintf("Your %s data has been received and queued for processing.", p.dataType()),
				dataMetadata(p)
		},
	},
}

func userMetadata(p eventPayload) map[string]any {
	return compact(map[string]any{"username": p.Username, "email": p.Email})
}

func dataMetadata(p eventPayload) map[string]any {
	return compact(map[string]any{"dataId": p.dataID(), "dataType": p.dataType()})
}

// compact drops empty strings and nil values.
func compact(m map[string]any) map[string]any {
	for k, v := range m {
		if v == nil || v == "" {
			delete(m, k)
		}
	}
	return m
}

// humanize turns identifiers like churn_model into "Churn Model".
func humanize(s string) string {
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// priorityForSeverity maps alert severities onto notification priorities.
func priorityForSeverity(severity string) notification.Priority {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "warning", "high":
		return notification.PriorityHigh
	case "critical", "error":
		return notification.PriorityCritical
	default:
		return notification.PriorityNormal
	}
}
