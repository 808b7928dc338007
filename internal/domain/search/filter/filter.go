// Package filter defines the structured filter spec for non-ranked search.
//
// A Spec is an ordered list of tagged criteria, validated at construction
// rather than dispatched by string switch at evaluation time. Every
// criterion must pass for an entity to match; criteria that do not apply to
// an entity type are ignored.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

// MaxCriteria bounds the number of criteria in one spec.
const MaxCriteria = 32

// Fields a criterion may target.
const (
	FieldTitle    = "title"
	FieldName     = "name"
	FieldStatus   = "status"
	FieldPriority = "priority"
	FieldAssignee = "assignee"
	FieldCreated  = "created"
	FieldDue      = "due"
	FieldTags     = "tags"
)

type kind int

const (
	kindEquals kind = iota
	kindWildcard
	kindAfter
	kindBefore
	kindTagContains
)

// Criterion is a single validated filter clause.
type Criterion struct {
	kind    kind
	field   string
	value   string
	pattern *regexp.Regexp
	bound   time.Time
}

// Equals creates an exact-match criterion. Date fields take After/Before
// bounds, never an exact value.
func Equals(field, value string) (Criterion, error) {
	if field == "" {
		return Criterion{}, fmt.Errorf("%w: equals: field is required", domain.ErrInvalidFilter)
	}
	if field == FieldCreated || field == FieldDue {
		return Criterion{}, fmt.Errorf("%w: equals: date field %q takes a bound, not an exact value", domain.ErrInvalidFilter, field)
	}
	if value == "" {
		return Criterion{}, fmt.Errorf("%w: equals: value is required for field %q", domain.ErrInvalidFilter, field)
	}
	return Criterion{kind: kindEquals, field: field, value: value}, nil
}

// Wildcard creates a glob-style text criterion. `*` matches any run of
// characters, `?` exactly one; the pattern is anchored at both ends.
func Wildcard(field, pattern string) (Criterion, error) {
	if field == "" {
		return Criterion{}, fmt.Errorf("%w: wildcard: field is required", domain.ErrInvalidFilter)
	}
	if field == FieldCreated || field == FieldDue {
		return Criterion{}, fmt.Errorf("%w: wildcard: date field %q takes a bound, not a pattern", domain.ErrInvalidFilter, field)
	}
	if pattern == "" {
		return Criterion{}, fmt.Errorf("%w: wildcard: pattern is required for field %q", domain.ErrInvalidFilter, field)
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return Criterion{}, fmt.Errorf("%w: wildcard: pattern %q: %v", domain.ErrInvalidFilter, pattern, err)
	}
	return Criterion{kind: kindWildcard, field: field, pattern: re}, nil
}

// After creates a lower date bound. Entities whose relevant date is unset
// fail the bound; they are not treated as always-passing.
func After(field string, bound time.Time) (Criterion, error) {
	if field != FieldCreated && field != FieldDue {
		return Criterion{}, fmt.Errorf("%w: after: unsupported date field %q", domain.ErrInvalidFilter, field)
	}
	if bound.IsZero() {
		return Criterion{}, fmt.Errorf("%w: after: bound is required for field %q", domain.ErrInvalidFilter, field)
	}
	return Criterion{kind: kindAfter, field: field, bound: bound}, nil
}

// Before creates an upper date bound.
func Before(field string, bound time.Time) (Criterion, error) {
	if field != FieldCreated && field != FieldDue {
		return Criterion{}, fmt.Errorf("%w: before: unsupported date field %q", domain.ErrInvalidFilter, field)
	}
	if bound.IsZero() {
		return Criterion{}, fmt.Errorf("%w: before: bound is required for field %q", domain.ErrInvalidFilter, field)
	}
	return Criterion{kind: kindBefore, field: field, bound: bound}, nil
}

// TagContains creates a tag-containment criterion. Matching is
// case-insensitive after trimming.
func TagContains(tag string) (Criterion, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return Criterion{}, fmt.Errorf("%w: tag: value is required", domain.ErrInvalidFilter)
	}
	return Criterion{kind: kindTagContains, field: FieldTags, value: tag}, nil
}

// Field returns the field the criterion targets.
func (c Criterion) Field() string { return c.field }

// matchText applies an equals or wildcard criterion to a text value.
func (c Criterion) matchText(text string) bool {
	switch c.kind {
	case kindEquals:
		return text == c.value
	case kindWildcard:
		return c.pattern.MatchString(text)
	default:
		return false
	}
}

// matchDate applies a date bound. The zero time means the entity has no
// value for the field and fails either bound.
func (c Criterion) matchDate(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	switch c.kind {
	case kindAfter:
		return !t.Before(c.bound)
	case kindBefore:
		return !t.After(c.bound)
	default:
		return false
	}
}

// matchTags applies a tag-containment criterion.
func (c Criterion) matchTags(tags []string) bool {
	for _, tag := range tags {
		if strings.ToLower(strings.TrimSpace(tag)) == c.value {
			return true
		}
	}
	return false
}

// Entity type restrictions for a Spec.
const (
	TypeAny     = ""
	TypeTask    = "task"
	TypeProject = "project"
)

// Spec is a validated, ordered filter set. All criteria AND together.
type Spec struct {
	entityType string
	criteria   []Criterion
}

// New validates and creates a Spec. entityType restricts which entity kinds
// are searched at all (TypeAny searches both tasks and projects).
func New(entityType string, criteria ...Criterion) (Spec, error) {
	switch entityType {
	case TypeAny, TypeTask, TypeProject:
	default:
		return Spec{}, fmt.Errorf("%w: unsupported entity type %q", domain.ErrInvalidFilter, entityType)
	}
	if len(criteria) > MaxCriteria {
		return Spec{}, fmt.Errorf("%w: too many criteria (max %d)", domain.ErrInvalidFilter, MaxCriteria)
	}
	return Spec{entityType: entityType, criteria: criteria}, nil
}

// EntityType returns the entity type restriction.
func (s Spec) EntityType() string { return s.entityType }

// Criteria returns the criteria in declaration order.
func (s Spec) Criteria() []Criterion { return s.criteria }

// IsEmpty reports whether the spec has no criteria and no type restriction.
func (s Spec) IsEmpty() bool {
	return s.entityType == TypeAny && len(s.criteria) == 0
}

// compileGlob translates a `*`/`?` glob into an anchored regexp.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\?`, `.`)
	return regexp.Compile("^" + quoted + "$")
}
