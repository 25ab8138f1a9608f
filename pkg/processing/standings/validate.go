package standings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

var (
	ErrDuplicatePosition    = errors.New("finish position assigned more than once")
	ErrDuplicateParticipant = errors.New("participant has more than one result")
	ErrInvalidPosition      = errors.New("position out of range")
	ErrNegativePenalty      = errors.New("penalty points must not be negative")
	ErrForeignRace          = errors.New("result belongs to another race")
)

type validateConfig struct {
	maxPosition int
}

type ValidateOption func(*validateConfig)

// WithMaxPosition rejects positions beyond limit (usually the batch capacity).
func WithMaxPosition(limit int) ValidateOption {
	return func(c *validateConfig) {
		c.maxPosition = limit
	}
}

// ValidateRaceResults checks the results of a single race before they are stored.
// Position 0 means "not recorded" and is exempt from the uniqueness check.
//
//nolint:whitespace // editor/linter issue
func ValidateRaceResults(
	raceID int64,
	results []model.RaceResult,
	opts ...ValidateOption,
) error {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	finishers := make(map[int]int64)
	seen := make(map[int64]struct{})
	for _, r := range results {
		if r.RaceID != raceID {
			return fmt.Errorf("race %d, participant %d in race %d: %w",
				raceID, r.ParticipantID, r.RaceID, ErrForeignRace)
		}
		if _, ok := seen[r.ParticipantID]; ok {
			return fmt.Errorf("race %d, participant %d: %w",
				raceID, r.ParticipantID, ErrDuplicateParticipant)
		}
		seen[r.ParticipantID] = struct{}{}

		if r.Penalty < 0 {
			return fmt.Errorf("race %d, participant %d: %w",
				raceID, r.ParticipantID, ErrNegativePenalty)
		}
		for _, pos := range []int{model.StartOf(r.Placing), model.FinishOf(r.Placing)} {
			if pos < 0 || (cfg.maxPosition > 0 && pos > cfg.maxPosition) {
				return fmt.Errorf("race %d, participant %d, position %d: %w",
					raceID, r.ParticipantID, pos, ErrInvalidPosition)
			}
		}

		finish := model.FinishOf(r.Placing)
		if finish == 0 {
			continue
		}
		if other, ok := finishers[finish]; ok {
			return fmt.Errorf("race %d, position %d (participants %d and %d): %w",
				raceID, finish, other, r.ParticipantID, ErrDuplicatePosition)
		}
		finishers[finish] = r.ParticipantID
	}
	return nil
}

// Validate checks results spanning several races.
func Validate(results []model.RaceResult, opts ...ValidateOption) error {
	byRace := GroupByRace(results)
	raceIDs := lo.Keys(byRace)
	slices.Sort(raceIDs)
	for _, raceID := range raceIDs {
		if err := ValidateRaceResults(raceID, byRace[raceID], opts...); err != nil {
			return err
		}
	}
	return nil
}

// Normalize replaces missing placings with an empty start/finish pair
// so that stored rows always carry explicit positions.
func Normalize(results []model.RaceResult) []model.RaceResult {
	ret := make([]model.RaceResult, len(results))
	for i, r := range results {
		if r.Placing == nil {
			r.Placing = model.StartFinish{}
		}
		ret[i] = r
	}
	return ret
}
