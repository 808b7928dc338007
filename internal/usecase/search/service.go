// Package search implements relevance-ranked search across tasks,
// projects, comments, and files. Every operation is scoped to the
// calling user: entities the user cannot see are never scored, so they
// can never leak into results regardless of how well they match.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/domain/search/filter"
	"github.com/collabtask/collabtask/internal/domain/search/result"
)

// filterMatchScore is the flat relevance assigned by AdvancedSearch.
// Filtering is a membership test, not a ranking, so every match gets
// the same score.
const filterMatchScore = 50

// DefaultSuggestionLimit caps Suggest when the caller passes no limit.
const DefaultSuggestionLimit = 10

// SuggestionKind tags where a suggestion text came from.
const (
	SuggestionTask    = "TASK"
	SuggestionProject = "PROJECT"
	SuggestionTag     = "TAG"
)

// Suggestion is one autocomplete entry. Order is significant: task
// titles come before project names before tags.
type Suggestion struct {
	Text string
	Kind string
}

// Service executes searches. All methods are read-only and free of
// side effects, so repeated calls against unchanged data return
// identical results.
type Service struct {
	access   AccessResolver
	comments CommentSource
	files    FileSource
	users    UserSource
}

// New creates a search service.
func New(access AccessResolver, comments CommentSource, files FileSource, users UserSource) *Service {
	return &Service{
		access:   access,
		comments: comments,
		files:    files,
		users:    users,
	}
}

// GlobalSearch searches tasks, projects, comments, and files in one
// pass and returns all results ordered by descending relevance. Ties
// keep the per-type order: tasks, then projects, then comments, then
// files. A blank query returns no results.
func (s *Service) GlobalSearch(ctx context.Context, query string, userID int64) ([]result.Result, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	scope, err := s.access.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}

	results := scoreTasks(scope.Tasks(), normalized)
	results = append(results, scoreProjects(scope.Projects(), normalized)...)

	comments, err := s.commentsInScope(ctx, scope.TaskIDs())
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}
	results = append(results, scoreComments(comments, normalized)...)

	files, err := s.filesInScope(ctx, scope.TaskIDs(), scope.ProjectIDs())
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}
	results = append(results, scoreFiles(files, normalized)...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	return results, nil
}

// SearchTasks returns accessible tasks matching the query, unsorted.
func (s *Service) SearchTasks(ctx context.Context, query string, userID int64) ([]result.Result, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	tasks, err := s.access.ResolveTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return scoreTasks(tasks, normalized), nil
}

// SearchProjects returns accessible projects matching the query.
func (s *Service) SearchProjects(ctx context.Context, query string, userID int64) ([]result.Result, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	projects, err := s.access.ResolveProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	return scoreProjects(projects, normalized), nil
}

// SearchComments returns matching comments on tasks the user can see.
// Visibility is inherited: a comment is searchable only through its
// parent task.
func (s *Service) SearchComments(ctx context.Context, query string, userID int64) ([]result.Result, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	tasks, err := s.access.ResolveTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}

	taskIDs := make([]int64, len(tasks))
	for i := range tasks {
		taskIDs[i] = tasks[i].ID
	}

	comments, err := s.commentsInScope(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}
	return scoreComments(comments, normalized), nil
}

// SearchFiles returns matching files attached to tasks or projects the
// user can see.
func (s *Service) SearchFiles(ctx context.Context, query string, userID int64) ([]result.Result, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	scope, err := s.access.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}

	files, err := s.filesInScope(ctx, scope.TaskIDs(), scope.ProjectIDs())
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	return scoreFiles(files, normalized), nil
}

// AdvancedSearch applies a filter specification over the user's
// accessible tasks and projects. Matching is binary, so every result
// carries the same flat score.
func (s *Service) AdvancedSearch(ctx context.Context, spec filter.Spec, userID int64) ([]result.Result, error) {
	scope, err := s.access.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("advanced search: %w", err)
	}

	var results []result.Result

	tasks := scope.Tasks()
	for i := range tasks {
		if spec.MatchesTask(&tasks[i]) {
			results = append(results, result.New(result.TypeTask, tasks[i], filterMatchScore))
		}
	}

	projects := scope.Projects()
	for i := range projects {
		if spec.MatchesProject(&projects[i]) {
			results = append(results, result.New(result.TypeProject, projects[i], filterMatchScore))
		}
	}

	return results, nil
}

// Suggest returns up to limit autocomplete entries for a partial query,
// checked in fixed priority order: task titles, then project names,
// then tags. When the same text appears in more than one category the
// first occurrence wins and later ones are dropped.
func (s *Service) Suggest(ctx context.Context, partialQuery string, userID int64, limit int) ([]Suggestion, error) {
	normalized := normalize(partialQuery)
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	scope, err := s.access.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	suggestions := make([]Suggestion, 0, limit)
	seen := make(map[string]struct{}, limit)

	add := func(text, kind string) bool {
		if _, dup := seen[text]; dup {
			return len(suggestions) < limit
		}
		seen[text] = struct{}{}
		suggestions = append(suggestions, Suggestion{Text: text, Kind: kind})
		return len(suggestions) < limit
	}

	tasks := scope.Tasks()
	for i := range tasks {
		if strings.Contains(strings.ToLower(tasks[i].Title), normalized) {
			if !add(tasks[i].Title, SuggestionTask) {
				return suggestions, nil
			}
		}
	}

	projects := scope.Projects()
	for i := range projects {
		if strings.Contains(strings.ToLower(projects[i].Name), normalized) {
			if !add(projects[i].Name, SuggestionProject) {
				return suggestions, nil
			}
		}
	}

	for i := range tasks {
		for _, tag := range tasks[i].Tags {
			tag = strings.TrimSpace(tag)
			if strings.Contains(strings.ToLower(tag), normalized) {
				if !add(tag, SuggestionTag) {
					return suggestions, nil
				}
			}
		}
	}

	return suggestions, nil
}

// SearchUsers looks up a user by exact name or email. Admins see all
// users; everyone else sees only active ones. A miss is an empty list,
// not an error.
func (s *Service) SearchUsers(ctx context.Context, query string, isAdmin bool) ([]domain.User, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, nil
	}

	user, err := s.users.FindByNameOrEmail(ctx, normalized, !isAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search users: %w", err)
	}
	return []domain.User{user}, nil
}

func (s *Service) commentsInScope(ctx context.Context, taskIDs []int64) ([]domain.Comment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	grouped, err := s.comments.FindByTaskIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}

	var comments []domain.Comment
	for _, id := range taskIDs {
		comments = append(comments, grouped[id]...)
	}
	return comments, nil
}

func (s *Service) filesInScope(ctx context.Context, taskIDs, projectIDs []int64) ([]domain.File, error) {
	var files []domain.File

	if len(taskIDs) > 0 {
		grouped, err := s.files.FindByTaskIDs(ctx, taskIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range taskIDs {
			files = append(files, grouped[id]...)
		}
	}

	if len(projectIDs) > 0 {
		grouped, err := s.files.FindByProjectIDs(ctx, projectIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range projectIDs {
			files = append(files, grouped[id]...)
		}
	}

	return files, nil
}

func scoreTasks(tasks []domain.Task, query string) []result.Result {
	var results []result.Result
	for i := range tasks {
		if score := scoreTask(&tasks[i], query); score > 0 {
			results = append(results, result.New(result.TypeTask, tasks[i], score))
		}
	}
	return results
}

func scoreProjects(projects []domain.Project, query string) []result.Result {
	var results []result.Result
	for i := range projects {
		if score := scoreProject(&projects[i], query); score > 0 {
			results = append(results, result.New(result.TypeProject, projects[i], score))
		}
	}
	return results
}

func scoreComments(comments []domain.Comment, query string) []result.Result {
	var results []result.Result
	for i := range comments {
		if score := scoreComment(&comments[i], query); score > 0 {
			results = append(results, result.New(result.TypeComment, comments[i], score))
		}
	}
	return results
}

func scoreFiles(files []domain.File, query string) []result.Result {
	var results []result.Result
	for i := range files {
		if score := scoreFile(&files[i], query); score > 0 {
			results = append(results, result.New(result.TypeFile, files[i], score))
		}
	}
	return results
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
