// Package result defines the search hit value object.
package result

// EntityType tags the kind of entity a result refers to.
type EntityType string

// Entity type tags, spelled the way the API reports them.
const (
	TypeTask    EntityType = "TASK"
	TypeProject EntityType = "PROJECT"
	TypeComment EntityType = "COMMENT"
	TypeFile    EntityType = "FILE"
)

// Result is a single search hit: an entity snapshot plus its relevance
// score. Results are never persisted.
type Result struct {
	entityType EntityType
	entity     any
	score      int
}

// New creates a search result. The score is clamped at zero; the scorer
// never produces a negative value, but a Result must not carry one either.
func New(entityType EntityType, entity any, score int) Result {
	if score < 0 {
		score = 0
	}
	return Result{entityType: entityType, entity: entity, score: score}
}

// Type returns the entity type tag.
func (r *Result) Type() EntityType { return r.entityType }

// Entity returns the entity snapshot.
func (r *Result) Entity() any { return r.entity }

// Score returns the relevance score.
func (r *Result) Score() int { return r.score }
