package filter

import (
	"strconv"

	"github.com/collabtask/collabtask/internal/domain"
)

// MatchesTask reports whether every applicable criterion passes for the
// task. Criteria targeting fields a task does not have are ignored.
func (s Spec) MatchesTask(t *domain.Task) bool {
	if s.entityType == TypeProject {
		return false
	}
	for _, c := range s.criteria {
		switch c.field {
		case FieldTitle:
			if !c.matchText(t.Title) {
				return false
			}
		case FieldStatus:
			if c.kind == kindEquals && t.Status != c.value {
				return false
			}
		case FieldPriority:
			if c.kind == kindEquals && t.Priority != c.value {
				return false
			}
		case FieldAssignee:
			if c.kind == kindEquals && strconv.FormatInt(t.AssigneeID, 10) != c.value {
				return false
			}
		case FieldCreated:
			if !c.matchDate(t.CreatedAt) {
				return false
			}
		case FieldDue:
			if !c.matchDate(t.DueDate) {
				return false
			}
		case FieldTags:
			if !c.matchTags(t.Tags) {
				return false
			}
		}
	}
	return true
}

// MatchesProject reports whether every applicable criterion passes for the
// project.
func (s Spec) MatchesProject(p *domain.Project) bool {
	if s.entityType == TypeTask {
		return false
	}
	for _, c := range s.criteria {
		switch c.field {
		case FieldName:
			if !c.matchText(p.Name) {
				return false
			}
		case FieldStatus:
			if c.kind == kindEquals && p.Status != c.value {
				return false
			}
		case FieldCreated:
			if !c.matchDate(p.CreatedAt) {
				return false
			}
		}
	}
	return true
}
