package script

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func TestPickAngleHonorsExclusions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var exclude []string
	for _, a := range Angles() {
		if a.Name != "inflation" {
			exclude = append(exclude, a.Name)
		}
	}
	for i := 0; i < 10; i++ {
		if got := PickAngle(rng, exclude); got.Name != "inflation" {
			t.Fatalf("expected inflation, got %s", got.Name)
		}
	}
}

func TestPickAngleResetsWhenAllExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var exclude []string
	for _, a := range Angles() {
		exclude = append(exclude, a.Name)
	}
	got := PickAngle(rng, exclude)
	if got.Name == "" {
		t.Fatal("expected an angle even when all are excluded")
	}
}

func TestBuildPromptIncludesAvoidanceBlock(t *testing.T) {
	now := time.Date(2026, time.March, 14, 7, 0, 0, 0, time.UTC)
	prompt := BuildPrompt(PromptInput{
		Angle:        Angle{Name: "inflation", Topic: "rising prices", VisualHint: "petrol pump meter"},
		Now:          now,
		RecentTopics: []string{"Old topic one", "Old topic two"},
		TodayTopics:  []string{"Morning topic"},
	})
	if !strings.Contains(prompt, "March 14, 2026") {
		t.Fatalf("expected date anchor in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "DO NOT REPEAT") || !strings.Contains(prompt, "Old topic two") {
		t.Fatal("expected recent-topic avoidance block")
	}
	if !strings.Contains(prompt, "Already generated today: Morning topic") {
		t.Fatal("expected same-day avoidance line")
	}
	if !strings.Contains(prompt, "TODAY'S ANGLE: rising prices") {
		t.Fatal("expected angle topic in prompt")
	}
}

func TestBuildPromptManualTopicOverridesAngle(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Angle: Angle{Name: "inflation", Topic: "rising prices", VisualHint: "petrol pump meter"},
		Now:   time.Now(),
		Topic: "monsoon pothole olympics",
	})
	if !strings.Contains(prompt, "TODAY'S ANGLE: monsoon pothole olympics") {
		t.Fatalf("expected manual topic to drive the prompt:\n%s", prompt)
	}
}

func TestExtractTitle(t *testing.T) {
	now := time.Date(2026, time.March, 14, 7, 0, 0, 0, time.UTC)
	text := "Scene 1 — Hook\nVisual: petrol pump meter spinning wildly into orbit\nNarrator: line"
	title := ExtractTitle(text, now)
	if !strings.Contains(title, "petrol pump meter") {
		t.Fatalf("unexpected title: %q", title)
	}

	if title := ExtractTitle("", now); !strings.HasPrefix(title, "Script ") {
		t.Fatalf("expected timestamp fallback, got %q", title)
	}
}
