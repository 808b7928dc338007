// Package access resolves what a user is allowed to see. A scope is
// computed fresh per request and never cached: membership can change
// between calls.
package access

import (
	"context"
	"fmt"

	"github.com/collabtask/collabtask/internal/domain"
)

// Scope holds the entities visible to one user at one point in time. It
// keeps the fetched snapshots alongside the ID sets so a search call needs
// no second fetch.
type Scope struct {
	tasks      []domain.Task
	projects   []domain.Project
	taskIDs    map[int64]struct{}
	projectIDs map[int64]struct{}
}

// Tasks returns the visible task snapshots in fetch order.
func (s *Scope) Tasks() []domain.Task { return s.tasks }

// Projects returns the visible project snapshots in fetch order.
func (s *Scope) Projects() []domain.Project { return s.projects }

// TaskIDs returns the visible task IDs in fetch order.
func (s *Scope) TaskIDs() []int64 {
	ids := make([]int64, len(s.tasks))
	for i := range s.tasks {
		ids[i] = s.tasks[i].ID
	}
	return ids
}

// ProjectIDs returns the visible project IDs in fetch order.
func (s *Scope) ProjectIDs() []int64 {
	ids := make([]int64, len(s.projects))
	for i := range s.projects {
		ids[i] = s.projects[i].ID
	}
	return ids
}

// ContainsTask reports whether the task is visible in this scope.
func (s *Scope) ContainsTask(id int64) bool {
	_, ok := s.taskIDs[id]
	return ok
}

// ContainsProject reports whether the project is visible in this scope.
func (s *Scope) ContainsProject(id int64) bool {
	_, ok := s.projectIDs[id]
	return ok
}

// Service resolves access scopes. Read-only; the only failures are
// storage failures, which propagate as domain.ErrUnavailable from the
// repositories.
type Service struct {
	tasks    TaskLister
	projects ProjectLister
}

// New creates an access resolver.
func New(tasks TaskLister, projects ProjectLister) *Service {
	return &Service{tasks: tasks, projects: projects}
}

// Resolve computes the full scope for a user: tasks where the user is
// assignee, creator, or project member; projects where the user is owner
// or member. Entities reachable only through invisible entities are never
// included.
func (s *Service) Resolve(ctx context.Context, userID int64) (Scope, error) {
	tasks, err := s.ResolveTasks(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	projects, err := s.ResolveProjects(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	return newScope(tasks, projects), nil
}

// ResolveTasks returns the tasks visible to the user.
func (s *Service) ResolveTasks(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.FindAccessibleByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve tasks: %w", err)
	}
	return tasks, nil
}

// ResolveProjects returns the projects visible to the user.
func (s *Service) ResolveProjects(ctx context.Context, userID int64) ([]domain.Project, error) {
	projects, err := s.projects.FindAccessibleByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve projects: %w", err)
	}
	return projects, nil
}

// HasProjectAccess reports whether the user owns or belongs to the
// project. Used by the project-channel handshake.
func (s *Service) HasProjectAccess(ctx context.Context, userID, projectID int64) (bool, error) {
	ok, err := s.projects.HasMember(ctx, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("project access check: %w", err)
	}
	return ok, nil
}

func newScope(tasks []domain.Task, projects []domain.Project) Scope {
	sc := Scope{
		tasks:      tasks,
		projects:   projects,
		taskIDs:    make(map[int64]struct{}, len(tasks)),
		projectIDs: make(map[int64]struct{}, len(projects)),
	}
	for i := range tasks {
		sc.taskIDs[tasks[i].ID] = struct{}{}
	}
	for i := range projects {
		sc.projectIDs[projects[i].ID] = struct{}{}
	}
	return sc
}
