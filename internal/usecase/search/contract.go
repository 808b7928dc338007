package search

import (
	"context"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/usecase/access"
)

// AccessResolver computes the set of entities visible to a user.
type AccessResolver interface {
	Resolve(ctx context.Context, userID int64) (access.Scope, error)
	ResolveTasks(ctx context.Context, userID int64) ([]domain.Task, error)
	ResolveProjects(ctx context.Context, userID int64) ([]domain.Project, error)
}

// CommentSource reads comments for tasks in scope.
type CommentSource interface {
	FindByTaskIDs(ctx context.Context, taskIDs []int64) (map[int64][]domain.Comment, error)
}

// FileSource reads file attachments for tasks and projects in scope.
type FileSource interface {
	FindByTaskIDs(ctx context.Context, taskIDs []int64) (map[int64][]domain.File, error)
	FindByProjectIDs(ctx context.Context, projectIDs []int64) (map[int64][]domain.File, error)
}

// UserSource looks up users by exact name or email.
type UserSource interface {
	FindByNameOrEmail(ctx context.Context, normalizedQuery string, activeOnly bool) (domain.User, error)
}
