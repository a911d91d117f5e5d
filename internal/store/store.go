package store

import (
	"context"

	"github.com/nhle/pull-shared/internal/model"
)

// ActivityFilter controls filtering and pagination for journal queries.
type ActivityFilter struct {
	Kind       *model.ActivityKind
	Repository *string
	Number     *int
	Limit      int
	Offset     int
}

// Journal records outward writes made to GitHub so they can be audited
// after a run.
type Journal interface {
	Record(ctx context.Context, a model.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
}
