package search

import (
	"testing"

	"github.com/collabtask/collabtask/internal/domain"
)

func TestScoreTask(t *testing.T) {
	cases := []struct {
		name  string
		task  domain.Task
		query string
		want  int
	}{
		{
			name:  "exact title match low priority",
			task:  domain.Task{Title: "Fix login bug", Priority: domain.PriorityLow},
			query: "fix login bug",
			want:  100,
		},
		{
			name:  "substring title plus high priority",
			task:  domain.Task{Title: "Redesign homepage", Priority: "High"},
			query: "design",
			want:  70,
		},
		{
			name:  "tag only match on medium priority",
			task:  domain.Task{Title: "Ship release", Priority: "Medium", Tags: []string{"urgent"}},
			query: "urgent",
			want:  90,
		},
		{
			name:  "priority boost alone keeps task in results",
			task:  domain.Task{Title: "Unrelated", Priority: domain.PriorityHigh},
			query: "nothing matches",
			want:  20,
		},
		{
			name:  "description adds on top of title",
			task:  domain.Task{Title: "deploy", Description: "deploy to staging", Priority: domain.PriorityLow},
			query: "deploy",
			want:  140,
		},
		{
			name:  "first matching tag only counted once",
			task:  domain.Task{Title: "x", Tags: []string{"infra", "infra"}, Priority: domain.PriorityLow},
			query: "infra",
			want:  80,
		},
		{
			name:  "tag match is exact not substring",
			task:  domain.Task{Title: "x", Tags: []string{"infrastructure"}, Priority: domain.PriorityLow},
			query: "infra",
			want:  0,
		},
		{
			name:  "no match at all",
			task:  domain.Task{Title: "one", Description: "two", Priority: domain.PriorityLow},
			query: "three",
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreTask(&tc.task, tc.query); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreTaskMonotonicity(t *testing.T) {
	exact := scoreTask(&domain.Task{Title: "report"}, "report")
	partial := scoreTask(&domain.Task{Title: "status report draft"}, "report")
	tagOnly := scoreTask(&domain.Task{Title: "unrelated", Tags: []string{"report"}}, "report")

	if exact <= partial {
		t.Errorf("exact %d must outrank partial %d", exact, partial)
	}
	if partial <= 0 || tagOnly <= 0 {
		t.Fatal("partial and tag matches must score above zero")
	}
	if exact <= tagOnly {
		t.Errorf("exact %d must outrank tag-only %d", exact, tagOnly)
	}
}

func TestScoreProject(t *testing.T) {
	p := domain.Project{Name: "Website Redesign", Description: "new marketing site"}

	if got := scoreProject(&p, "website redesign"); got != 100 {
		t.Errorf("exact name: got %d, want 100", got)
	}
	if got := scoreProject(&p, "website"); got != 50 {
		t.Errorf("partial name: got %d, want 50", got)
	}
	if got := scoreProject(&p, "marketing"); got != 40 {
		t.Errorf("description: got %d, want 40", got)
	}
	if got := scoreProject(&p, "nothing"); got != 0 {
		t.Errorf("no match: got %d, want 0", got)
	}
}

func TestScoreComment(t *testing.T) {
	if got := scoreComment(&domain.Comment{Content: "looks good to me"}, "good"); got != 30 {
		t.Errorf("substring: got %d, want 30", got)
	}
	if got := scoreComment(&domain.Comment{Content: "LGTM"}, "lgtm"); got != 50 {
		t.Errorf("exact: got %d, want 50", got)
	}
	if got := scoreComment(&domain.Comment{Content: "unrelated"}, "good"); got != 0 {
		t.Errorf("no match: got %d, want 0", got)
	}
}

func TestScoreFile(t *testing.T) {
	if got := scoreFile(&domain.File{Filename: "design.pdf"}, "design.pdf"); got != 100 {
		t.Errorf("exact: got %d, want 100", got)
	}
	if got := scoreFile(&domain.File{Filename: "design-v2.pdf"}, "design"); got != 50 {
		t.Errorf("partial: got %d, want 50", got)
	}
	if got := scoreFile(&domain.File{Filename: "notes.txt"}, "design"); got != 0 {
		t.Errorf("no match: got %d, want 0", got)
	}
}
