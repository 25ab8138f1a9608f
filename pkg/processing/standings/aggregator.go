package standings

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

var ErrUnknownMode = errors.New("unknown mode")

// Mode selects the ordering of the standings.
type Mode int

const (
	// score, then last race finish, then first race start
	ModeTieBreak Mode = iota
	// score only, ties keep the input order
	ModeSimple
	// first race start position, used before results are known
	ModeSeed
)

var modeNames = map[string]Mode{
	"tiebreak": ModeTieBreak,
	"simple":   ModeSimple,
	"seed":     ModeSeed,
}

func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("mode %q: %w", s, ErrUnknownMode)
}

// MissingPolicy controls participants without any recorded result in the batch.
type MissingPolicy int

const (
	// score 0, ranked like everybody else
	MissingZero MissingPolicy = iota
	// ranked behind all participants with results
	MissingLast
	// left out of the standings
	MissingExclude
)

var missingNames = map[string]MissingPolicy{
	"zero":    MissingZero,
	"last":    MissingLast,
	"exclude": MissingExclude,
}

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	if p, ok := missingNames[strings.ToLower(s)]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("missing policy %q: %w", s, ErrUnknownMode)
}

// RaceRef identifies a race and its position in the batch sequence.
type RaceRef struct {
	ID    int64
	Order int
}

// Entry is the normalized outcome of one participant in one race.
type Entry struct {
	RaceID   int64 `json:"raceId"   yaml:"raceId"`
	Start    int   `json:"start"    yaml:"start"`
	Finish   int   `json:"finish"   yaml:"finish"`
	Penalty  int   `json:"penalty"  yaml:"penalty"`
	Recorded bool  `json:"recorded" yaml:"recorded"`
}

type Standing struct {
	Participant   model.Participant `json:"participant"   yaml:"participant"`
	Entries       []Entry           `json:"entries"       yaml:"entries"`
	Score         int               `json:"score"         yaml:"score"`
	AdjustedScore decimal.Decimal   `json:"adjustedScore" yaml:"adjustedScore"`
	FinalPosition int               `json:"finalPosition" yaml:"finalPosition"`
	NoResults     bool              `json:"noResults"     yaml:"noResults"`
}

// LastFinish returns the finish position of the last race in order.
func (s *Standing) LastFinish() int {
	if len(s.Entries) == 0 {
		return 0
	}
	return s.Entries[len(s.Entries)-1].Finish
}

// FirstStart returns the start position of the first race in order.
func (s *Standing) FirstStart() int {
	if len(s.Entries) == 0 {
		return 0
	}
	return s.Entries[0].Start
}

type Option func(*aggregator)

func WithMode(m Mode) Option {
	return func(a *aggregator) {
		a.mode = m
	}
}

func WithMissingPolicy(p MissingPolicy) Option {
	return func(a *aggregator) {
		a.missing = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(a *aggregator) {
		a.log = l
	}
}

type aggregator struct {
	mode    Mode
	missing MissingPolicy
	log     *log.Logger
}

type resultKey struct {
	race        int64
	participant int64
}

// GroupByRace arranges results by their race id.
func GroupByRace(results []model.RaceResult) map[int64][]model.RaceResult {
	return lo.GroupBy(results, func(r model.RaceResult) int64 { return r.RaceID })
}

// Aggregate ranks the participants of a batch by their results in the given races.
// Results for races or participants not part of the input are ignored.
// If a participant has more than one result for a race the last one is used.
//
//nolint:whitespace // editor/linter issue
func Aggregate(
	races []RaceRef,
	participants []model.Participant,
	resultsByRace map[int64][]model.RaceResult,
	opts ...Option,
) []Standing {
	a := &aggregator{
		mode:    ModeTieBreak,
		missing: MissingZero,
		log:     log.Default().Named("standings"),
	}
	for _, opt := range opts {
		opt(a)
	}

	ordered := slices.Clone(races)
	slices.SortStableFunc(ordered, func(x, y RaceRef) int {
		return cmp.Compare(x.Order, y.Order)
	})

	known := lo.SliceToMap(participants, func(p model.Participant) (int64, struct{}) {
		return p.ID, struct{}{}
	})
	lookup := a.collect(ordered, known, resultsByRace)

	ret := make([]Standing, 0, len(participants))
	missing := 0
	for _, p := range participants {
		s := Standing{Participant: p, Entries: make([]Entry, len(ordered)), NoResults: true}
		for i, race := range ordered {
			e := Entry{RaceID: race.ID}
			if r, ok := lookup[resultKey{race: race.ID, participant: p.ID}]; ok {
				e.Start = model.StartOf(r.Placing)
				e.Finish = model.FinishOf(r.Placing)
				e.Penalty = r.Penalty
				e.Recorded = true
				s.NoResults = false
			}
			s.Entries[i] = e
			s.Score += e.Finish + e.Penalty
		}
		s.AdjustedScore = adjustedScore(s.Score, s.LastFinish(), s.FirstStart())
		if s.NoResults {
			missing++
			if a.missing == MissingExclude {
				continue
			}
		}
		ret = append(ret, s)
	}
	if missing > 0 && a.missing == MissingZero && len(ordered) > 0 {
		a.log.Warn("participants without results are ranked with score 0",
			log.Int("participants", missing))
	}

	slices.SortStableFunc(ret, a.compare)
	for i := range ret {
		ret[i].FinalPosition = i + 1
	}
	return ret
}

//nolint:whitespace // editor/linter issue
func (a *aggregator) collect(
	races []RaceRef,
	known map[int64]struct{},
	resultsByRace map[int64][]model.RaceResult,
) map[resultKey]model.RaceResult {
	lookup := make(map[resultKey]model.RaceResult)
	for _, race := range races {
		for _, r := range resultsByRace[race.ID] {
			if r.RaceID != race.ID {
				a.log.Debug("result filed under foreign race ignored",
					log.Int64("race", race.ID), log.Int64("resultRace", r.RaceID))
				continue
			}
			if _, ok := known[r.ParticipantID]; !ok {
				a.log.Debug("result for unknown participant ignored",
					log.Int64("race", r.RaceID), log.Int64("participant", r.ParticipantID))
				continue
			}
			lookup[resultKey{race: r.RaceID, participant: r.ParticipantID}] = r
		}
	}
	return lookup
}

func (a *aggregator) compare(x, y Standing) int {
	if a.missing == MissingLast && x.NoResults != y.NoResults {
		if x.NoResults {
			return 1
		}
		return -1
	}
	switch a.mode {
	case ModeSeed:
		return compareStart(x.FirstStart(), y.FirstStart())
	case ModeSimple:
		return cmp.Compare(x.Score, y.Score)
	default:
		if c := cmp.Compare(x.Score, y.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(x.LastFinish(), y.LastFinish()); c != 0 {
			return c
		}
		return cmp.Compare(x.FirstStart(), y.FirstStart())
	}
}

// unknown start positions (0) go behind known ones
func compareStart(x, y int) int {
	switch {
	case x == y:
		return 0
	case x == 0:
		return 1
	case y == 0:
		return -1
	default:
		return cmp.Compare(x, y)
	}
}

// adjustedScore folds the tie-break keys into one number for display:
// score + 0.01 * last finish + 0.001 * first start, rounded to 3 places.
func adjustedScore(score, lastFinish, firstStart int) decimal.Decimal {
	return decimal.NewFromInt(int64(score)).
		Add(decimal.New(int64(lastFinish), -2)).
		Add(decimal.New(int64(firstStart), -3)).
		Round(3)
}
