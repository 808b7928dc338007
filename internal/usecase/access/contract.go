package access

import (
	"context"

	"github.com/collabtask/collabtask/internal/domain"
)

// TaskLister lists the tasks a user may see.
type TaskLister interface {
	FindAccessibleByUser(ctx context.Context, userID int64) ([]domain.Task, error)
}

// ProjectLister lists the projects a user may see and answers membership
// checks.
type ProjectLister interface {
	FindAccessibleByUser(ctx context.Context, userID int64) ([]domain.Project, error)
	HasMember(ctx context.Context, projectID, userID int64) (bool, error)
}
