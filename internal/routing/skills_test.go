package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

type fakeWorkerSource struct {
	workers []types.Worker
	err     error
}

func (f *fakeWorkerSource) GetAvailableWorkers(ctx context.Context) ([]types.Worker, error) {
	return f.workers, f.err
}

func TestMatchNoRequiredSkills(t *testing.T) {
	matcher := NewSkillsMatcher(&fakeWorkerSource{workers: []types.Worker{
		{ID: "w1", Skills: []string{"hvac"}, Available: true},
	}}, zerolog.Nop())

	result := matcher.Match(context.Background(), nil)
	if result.BestMatch != nil {
		t.Error("expected no best match without required skills")
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", result.Confidence)
	}
}

func TestMatchSourceError(t *testing.T) {
	matcher := NewSkillsMatcher(&fakeWorkerSource{err: errors.New("down")}, zerolog.Nop())

	result := matcher.Match(context.Background(), []string{"hvac"})
	if result.BestMatch != nil || len(result.Candidates) != 0 {
		t.Error("expected empty result when roster lookup fails")
	}
}

func TestMatchPicksLargestOverlap(t *testing.T) {
	matcher := NewSkillsMatcher(&fakeWorkerSource{workers: []types.Worker{
		{ID: "w1", Skills: []string{"hvac"}, Available: true},
		{ID: "w2", Skills: []string{"hvac", "plumbing"}, Available: true},
		{ID: "w3", Skills: []string{"electrical"}, Available: true},
	}}, zerolog.Nop())

	result := matcher.Match(context.Background(), []string{"hvac", "plumbing"})
	if result.BestMatch == nil || result.BestMatch.ID != "w2" {
		t.Fatalf("best match = %+v, want w2", result.BestMatch)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", result.Confidence)
	}
	if len(result.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(result.Candidates))
	}
}

func TestMatchSkipsUnavailable(t *testing.T) {
	matcher := NewSkillsMatcher(&fakeWorkerSource{workers: []types.Worker{
		{ID: "w1", Skills: []string{"hvac", "plumbing"}, Available: false},
		{ID: "w2", Skills: []string{"hvac"}, Available: true},
	}}, zerolog.Nop())

	result := matcher.Match(context.Background(), []string{"hvac", "plumbing"})
	if result.BestMatch == nil || result.BestMatch.ID != "w2" {
		t.Fatalf("best match = %+v, want w2", result.BestMatch)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", result.Confidence)
	}
}

func TestMatchTieBreaksByWorkerID(t *testing.T) {
	workers := []types.Worker{
		{ID: "w9", Skills: []string{"hvac"}, Available: true},
		{ID: "w2", Skills: []string{"hvac"}, Available: true},
		{ID: "w5", Skills: []string{"hvac"}, Available: true},
	}
	matcher := NewSkillsMatcher(&fakeWorkerSource{workers: workers}, zerolog.Nop())

	result := matcher.Match(context.Background(), []string{"hvac"})
	if result.BestMatch == nil || result.BestMatch.ID != "w2" {
		t.Fatalf("best match = %+v, want w2", result.BestMatch)
	}
}

func TestMatchNoOverlap(t *testing.T) {
	matcher := NewSkillsMatcher(&fakeWorkerSource{workers: []types.Worker{
		{ID: "w1", Skills: []string{"roofing"}, Available: true},
	}}, zerolog.Nop())

	result := matcher.Match(context.Background(), []string{"hvac"})
	if result.BestMatch != nil {
		t.Error("expected no best match without overlap")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("candidates = %v, want none", result.Candidates)
	}
}
