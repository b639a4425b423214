package model

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Senior Software Engineer", "senior-software-engineer"},
		{"  QA   Engineer  ", "qa-engineer"},
		{"Go", "go"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStageIndex(t *testing.T) {
	t.Parallel()

	for i, stage := range Stages {
		if got := StageIndex(stage); got != i {
			t.Fatalf("StageIndex(%s) = %d, want %d", stage, got, i)
		}
	}
	if got := StageIndex("unknown"); got != -1 {
		t.Fatalf("StageIndex(unknown) = %d, want -1", got)
	}
}
