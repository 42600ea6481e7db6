package routing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// WorkerSource provides the current worker roster for skills matching
type WorkerSource interface {
	GetAvailableWorkers(ctx context.Context) ([]types.Worker, error)
}

// SkillsResult lists the available workers whose skills intersect the
// requirement, plus the single best candidate.
type SkillsResult struct {
	RequiredSkills []string       `json:"requiredSkills"`
	Candidates     []types.Worker `json:"candidates"`
	BestMatch      *types.Worker  `json:"bestMatch,omitempty"`
	Confidence     float64        `json:"confidence"`
}

// SkillsMatcher scores available workers against required skills
type SkillsMatcher struct {
	source WorkerSource
	logger zerolog.Logger
}

func NewSkillsMatcher(source WorkerSource, logger zerolog.Logger) *SkillsMatcher {
	return &SkillsMatcher{
		source: source,
		logger: logger.With().Str("component", "skills_matcher").Logger(),
	}
}

// Match finds available workers overlapping the required skill set. The
// best match has the largest overlap; ties break toward the lower worker
// ID so repeated calls give the same answer. Confidence is the best
// overlap divided by the number of required skills.
func (m *SkillsMatcher) Match(ctx context.Context, required []string) SkillsResult {
	result := SkillsResult{RequiredSkills: required}
	if len(required) == 0 || m.source == nil {
		return result
	}

	workers, err := m.source.GetAvailableWorkers(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("worker roster lookup failed")
		return result
	}

	requiredSet := make(map[string]bool, len(required))
	for _, skill := range required {
		requiredSet[skill] = true
	}

	bestOverlap := 0
	for _, worker := range workers {
		if !worker.Available {
			continue
		}
		overlap := 0
		for _, skill := range worker.Skills {
			if requiredSet[skill] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		result.Candidates = append(result.Candidates, worker)
		w := worker
		if overlap > bestOverlap || (overlap == bestOverlap && result.BestMatch != nil && w.ID < result.BestMatch.ID) {
			bestOverlap = overlap
			result.BestMatch = &w
		}
	}

	if bestOverlap > 0 {
		result.Confidence = float64(bestOverlap) / float64(len(requiredSet))
	}

	return result
}
