package domain

import (
	"context"
	"errors"

	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

type OrganizationRequest struct {
	Range usagedomain.ListFilter
}

type LanguagesRequest struct {
	Range     usagedomain.ListFilter
	Languages []string
}

type EditorsRequest struct {
	Range   usagedomain.ListFilter
	Editors []string
}

type ChatPromptsRequest struct {
	Range usagedomain.ListFilter
}

// Catalog lists the collections or tables of the backing store.
type Catalog interface {
	Collections(ctx context.Context) ([]string, error)
}

type Service interface {
	Organization(ctx context.Context, req OrganizationRequest) (OrganizationResponse, error)
	Languages(ctx context.Context, req LanguagesRequest) (LanguagesResponse, error)
	Editors(ctx context.Context, req EditorsRequest) (EditorsResponse, error)
	ChatPrompts(ctx context.Context, req ChatPromptsRequest) (ChatPromptsResponse, error)
	Billing(ctx context.Context) (BillingResponse, error)
	Debug(ctx context.Context) (DebugResponse, error)
}

var (
	ErrNoData      = errors.New("no_data")
	ErrNoDocuments = errors.New("no_documents")
)
