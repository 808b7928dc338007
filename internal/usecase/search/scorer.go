package search

import (
	"strings"

	"github.com/collabtask/collabtask/internal/domain"
)

// Relevance weights for the different kinds of matches.
const (
	exactMatchScore       = 100
	partialMatchScore     = 50
	tagMatchScore         = 80
	descriptionMatchScore = 40
	commentMatchScore     = 30

	commentExactBonus   = 20
	highPriorityBoost   = 20
	mediumPriorityBoost = 10
)

// scoreTask ranks a task against the normalized query. The priority
// boost is additive and independent of any text match, so a High
// priority task scores nonzero even when no field matches. That keeps
// important tasks visible in broad queries.
func scoreTask(t *domain.Task, query string) int {
	score := 0

	title := strings.ToLower(t.Title)
	if title == query {
		score += exactMatchScore
	} else if strings.Contains(title, query) {
		score += partialMatchScore
	}

	if strings.Contains(strings.ToLower(t.Description), query) {
		score += descriptionMatchScore
	}

	for _, tag := range t.Tags {
		if strings.ToLower(strings.TrimSpace(tag)) == query {
			score += tagMatchScore
			break
		}
	}

	switch strings.ToLower(t.Priority) {
	case domain.PriorityHigh:
		score += highPriorityBoost
	case domain.PriorityMedium:
		score += mediumPriorityBoost
	}

	return score
}

func scoreProject(p *domain.Project, query string) int {
	score := 0

	name := strings.ToLower(p.Name)
	if name == query {
		score += exactMatchScore
	} else if strings.Contains(name, query) {
		score += partialMatchScore
	}

	if strings.Contains(strings.ToLower(p.Description), query) {
		score += descriptionMatchScore
	}

	return score
}

func scoreComment(c *domain.Comment, query string) int {
	content := strings.ToLower(c.Content)
	if !strings.Contains(content, query) {
		return 0
	}

	score := commentMatchScore
	if content == query {
		score += commentExactBonus
	}
	return score
}

func scoreFile(f *domain.File, query string) int {
	name := strings.ToLower(f.Filename)
	switch {
	case name == query:
		return exactMatchScore
	case strings.Contains(name, query):
		return partialMatchScore
	}
	return 0
}
