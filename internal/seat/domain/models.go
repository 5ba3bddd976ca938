// Package domain contains the billing seat model and its change detection rules.
package domain

import (
	"bytes"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Seat is one Copilot seat assignment. AssignedAt and AssigneeID form the
// durable identity; the pointer fields are the ones re-ingestion may patch.
type Seat struct {
	ID                 snowflake.ID   `gorm:"primaryKey"`
	AssignedAt         string         `gorm:"column:created_at;type:varchar(64);not null;index:ix_billing_seats_identity,priority:1"`
	AssigneeID         string         `gorm:"column:assignee_id;type:varchar(64);not null;index:ix_billing_seats_identity,priority:2"`
	AssigneeLogin      string         `gorm:"column:assignee_login;type:varchar(255)"`
	SeatUpdatedAt      *string        `gorm:"column:updated_at;type:varchar(64)"`
	PlanType           *string        `gorm:"column:plan_type;type:varchar(64)"`
	LastActivityAt     *string        `gorm:"column:last_activity_at;type:varchar(64)"`
	LastActivityEditor *string        `gorm:"column:last_activity_editor;type:varchar(255)"`
	Assignee           datatypes.JSON `gorm:"column:assignee"`
	Document           datatypes.JSON `gorm:"column:document;not null"`
}

// TableName sets the database table name.
func (Seat) TableName() string { return "billing_seats" }

const (
	FieldUpdatedAt          = "updated_at"
	FieldPlanType           = "plan_type"
	FieldLastActivityAt     = "last_activity_at"
	FieldLastActivityEditor = "last_activity_editor"
)

// SeatPatch maps a mutable field name to its new value. Nil values clear the field.
type SeatPatch map[string]*string

func (p SeatPatch) Empty() bool { return len(p) == 0 }

// Fields returns the changed field names in a stable order.
func (p SeatPatch) Fields() []string {
	out := make([]string, 0, len(p))
	for _, field := range []string{FieldUpdatedAt, FieldPlanType, FieldLastActivityAt, FieldLastActivityEditor} {
		if _, ok := p[field]; ok {
			out = append(out, field)
		}
	}
	return out
}

// Columns converts the patch into a gorm/bson update set.
func (p SeatPatch) Columns() map[string]any {
	out := make(map[string]any, len(p))
	for field, value := range p {
		if value == nil {
			out[field] = nil
			continue
		}
		out[field] = *value
	}
	return out
}

// Diff compares the mutable fields of stored and incoming and returns only the ones that differ.
func Diff(stored, incoming Seat) SeatPatch {
	patch := SeatPatch{}
	compare := func(field string, a, b *string) {
		if !sameValue(a, b) {
			patch[field] = b
		}
	}
	compare(FieldUpdatedAt, stored.SeatUpdatedAt, incoming.SeatUpdatedAt)
	compare(FieldPlanType, stored.PlanType, incoming.PlanType)
	compare(FieldLastActivityAt, stored.LastActivityAt, incoming.LastActivityAt)
	compare(FieldLastActivityEditor, stored.LastActivityEditor, incoming.LastActivityEditor)
	return patch
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Apply writes the patch onto seat in place.
func (p SeatPatch) Apply(seat *Seat) {
	for field, value := range p {
		switch field {
		case FieldUpdatedAt:
			seat.SeatUpdatedAt = value
		case FieldPlanType:
			seat.PlanType = value
		case FieldLastActivityAt:
			seat.LastActivityAt = value
		case FieldLastActivityEditor:
			seat.LastActivityEditor = value
		}
	}
}

// ApplyDocument writes the patch into a stored seat document, leaving every
// other key as it was. Nil values become JSON null.
func (p SeatPatch) ApplyDocument(document []byte) ([]byte, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(document)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(document))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	for field, value := range p.Columns() {
		fields[field] = value
	}
	return json.Marshal(fields)
}
