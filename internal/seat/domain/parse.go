package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSeat builds a Seat from one element of the upstream seats array.
func ParseSeat(raw json.RawMessage) (Seat, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Seat{}, ErrInvalidSeat
	}

	createdAt, _ := fields["created_at"].(string)
	if strings.TrimSpace(createdAt) == "" {
		return Seat{}, ErrMissingIdentity
	}

	assignee, _ := fields["assignee"].(map[string]any)
	assigneeID := scalarString(assignee["id"])
	if assigneeID == "" {
		return Seat{}, ErrMissingIdentity
	}

	seat := Seat{
		AssignedAt:         createdAt,
		AssigneeID:         assigneeID,
		AssigneeLogin:      scalarString(assignee["login"]),
		SeatUpdatedAt:      optionalString(fields["updated_at"]),
		PlanType:           optionalString(fields["plan_type"]),
		LastActivityAt:     optionalString(fields["last_activity_at"]),
		LastActivityEditor: optionalString(fields["last_activity_editor"]),
	}

	if assignee != nil {
		body, err := json.Marshal(assignee)
		if err != nil {
			return Seat{}, err
		}
		seat.Assignee = body
	}
	document, err := json.Marshal(fields)
	if err != nil {
		return Seat{}, err
	}
	seat.Document = document

	return seat, nil
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func optionalString(value any) *string {
	if value == nil {
		return nil
	}
	s := scalarString(value)
	if _, ok := value.(string); !ok && s == "" {
		return nil
	}
	return &s
}
