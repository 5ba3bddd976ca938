package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDiffReturnsOnlyChangedFields(t *testing.T) {
	stored := Seat{
		SeatUpdatedAt:      strPtr("2024-01-01T00:00:00Z"),
		PlanType:           strPtr("business"),
		LastActivityAt:     nil,
		LastActivityEditor: strPtr("vscode"),
	}

	assert.True(t, Diff(stored, stored).Empty())

	incoming := stored
	incoming.PlanType = strPtr("enterprise")
	patch := Diff(stored, incoming)
	assert.Equal(t, []string{FieldPlanType}, patch.Fields())
	assert.Equal(t, map[string]any{FieldPlanType: "enterprise"}, patch.Columns())

	incoming = stored
	incoming.LastActivityAt = strPtr("2024-01-02T00:00:00Z")
	incoming.LastActivityEditor = nil
	patch = Diff(stored, incoming)
	assert.Equal(t, []string{FieldLastActivityAt, FieldLastActivityEditor}, patch.Fields())
	assert.Nil(t, patch.Columns()[FieldLastActivityEditor])

	patch.Apply(&stored)
	assert.Equal(t, "2024-01-02T00:00:00Z", *stored.LastActivityAt)
	assert.Nil(t, stored.LastActivityEditor)
}

func TestParseSeat(t *testing.T) {
	raw := json.RawMessage(`{
		"created_at": "2024-01-01T10:00:00Z",
		"updated_at": "2024-01-02T10:00:00Z",
		"plan_type": "business",
		"last_activity_at": null,
		"last_activity_editor": "vscode/1.0",
		"assignee": {"id": 12345678901, "login": "octocat"}
	}`)

	seat, err := ParseSeat(raw)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T10:00:00Z", seat.AssignedAt)
	assert.Equal(t, "12345678901", seat.AssigneeID)
	assert.Equal(t, "octocat", seat.AssigneeLogin)
	assert.Equal(t, "business", *seat.PlanType)
	assert.Nil(t, seat.LastActivityAt)
	assert.JSONEq(t, `{"id": 12345678901, "login": "octocat"}`, string(seat.Assignee))
}

func TestParseSeatRequiresIdentity(t *testing.T) {
	_, err := ParseSeat(json.RawMessage(`{"assignee": {"id": 1}}`))
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = ParseSeat(json.RawMessage(`{"created_at": "2024-01-01", "assignee": {}}`))
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = ParseSeat(json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrInvalidSeat)
}

func TestApplyDocumentKeepsOtherKeys(t *testing.T) {
	patch := SeatPatch{FieldPlanType: strPtr("enterprise"), FieldLastActivityEditor: nil}

	out, err := patch.ApplyDocument([]byte(`{"plan_type":"business","last_activity_editor":"vim","assignee":{"id":12345678901}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan_type":"enterprise","last_activity_editor":null,"assignee":{"id":12345678901}}`, string(out))

	out, err = patch.ApplyDocument(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan_type":"enterprise","last_activity_editor":null}`, string(out))
}
