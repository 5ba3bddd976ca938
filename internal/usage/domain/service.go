package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// IngestResult summarises one ingestion payload.
type IngestResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// Total is the number of records seen in the payload.
func (r IngestResult) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Skipped
}

type Service interface {
	// Ingest accepts a single metrics object or an array of them.
	Ingest(ctx context.Context, payload []byte) (IngestResult, error)
	// ListDays returns typed documents in the window, ordered by date.
	ListDays(ctx context.Context, filter ListFilter) ([]Day, error)
}

const DateLayout = "2006-01-02"

var (
	ErrInvalidPayload = errors.New("invalid_payload")
	ErrMissingDate    = errors.New("missing_date")
	ErrInvalidDate    = errors.New("invalid_date")
)

// NormalizeDate parses any reasonable date spelling into YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingDate
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.UTC().Format(DateLayout), nil
}
