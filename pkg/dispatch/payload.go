package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// flexID accepts an identifier encoded as a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*f = flexID(n.String())
	}
	return nil
}

func firstID(ids ...flexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

// eventPayload is the union of the fields producers put on user, ml and data events.
type eventPayload struct {
	UserID      flexID `json:"userId"`
	UserIDSnake flexID `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DataID      flexID `json:"dataId"`
	DataType    string `json:"dataType"`
	Service     string `json:"service"`
	Reason      string `json:"reason"`
	Data        struct {
		UserID               flexID `json:"userId"`
		UserIDSnake          flexID `json:"user_id"`
		ModelName            string `json:"model_name"`
		Prediction           any    `json:"prediction"`
		RecommendationsCount *int   `json:"recommendations_count"`
		Recommendations      []any  `json:"recommendations"`
		DataID               flexID `json:"dataId"`
		DataType             string `json:"dataType"`
		Error                string `json:"error"`
	} `json:"data"`
}

// recipient prefers the nested data object, then the top level.
func (p eventPayload) recipient() string {
	return firstID(p.Data.UserID, p.Data.UserIDSnake, p.UserID, p.UserIDSnake)
}

func (p eventPayload) dataType() string {
	if p.DataType != "" {
		return p.DataType
	}
	return p.Data.DataType
}

func (p eventPayload) dataID() string {
	return firstID(p.DataID, p.Data.DataID)
}

func (p eventPayload) recommendationsCount() int {
	if p.Data.RecommendationsCount != nil {
		return *p.Data.RecommendationsCount
	}
	return len(p.Data.Recommendations)
}

type alertPayload struct {
	AlertType     string   `json:"alertType"`
	Message       string   `json:"message"`
	Severity      string   `json:"severity"`
	AffectedUsers []flexID `json:"affectedUsers"`
}

func (p alertPayload) recipients() []string {
	seen := make(map[string]struct{}, len(p.AffectedUsers))
	ids := make([]string, 0, len(p.AffectedUsers))
	for _, id := range p.AffectedUsers {
		if id == "" {
			continue
		}
		if _, dup := seen[string(id)]; dup {
			continue
		}
		seen[string(id)] = struct{}{}
		ids = append(ids, string(id))
	}
	return ids
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return nil
}
