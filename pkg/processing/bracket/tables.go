package bracket

import "slices"

const (
	MinBatches = 1
	MaxBatches = 8
	MinRiders  = 1
	MaxRiders  = 8
)

// FinalNames holds the final stage names in rank order.
// Rank 1 goes to the best qualifying line.
var FinalNames = []string{
	"Final Grand Champion",
	"Final Champion",
	"Final Pro",
	"Final Novice",
	"Final Rookie",
	"Final Beginner",
	"Final Amateur",
	"Final Newbie",
}

const (
	RoundQuarterfinal = "Quarterfinal"
	RoundSemifinal    = "Semifinal"
	RoundKualifikasi  = "Kualifikasi"
)

// Half selects which riders of a source batch move into a round.
type Half int

const (
	TopHalf    Half = iota // ceil(M/2) riders per source batch
	BottomHalf             // floor(M/2) riders per source batch
)

// FromQualifying marks a round fed by the initial qualifying batches.
const FromQualifying = -1

// Round is one intermediate level of the cascade.
// Source is the index of the feeding round within the same cascade
// or FromQualifying.
type Round struct {
	Name   string
	Source int
	Take   Half
}

// Cascade lists the intermediate rounds per number of qualifying batches.
// Rounds are in bracket order; a round only refers to rounds before it.
var Cascade = map[int][]Round{
	1: nil,
	2: nil,
	3: {
		{Name: RoundSemifinal, Source: FromQualifying, Take: TopHalf},
		{Name: RoundKualifikasi, Source: FromQualifying, Take: BottomHalf},
	},
	4: {
		{Name: RoundSemifinal, Source: FromQualifying, Take: TopHalf},
	},
	5: {
		{Name: RoundQuarterfinal, Source: FromQualifying, Take: TopHalf},
		{Name: RoundSemifinal, Source: 0, Take: TopHalf},
		{Name: RoundKualifikasi, Source: FromQualifying, Take: BottomHalf},
	},
	6: tieredCascade(),
	7: tieredCascade(),
	8: {
		{Name: RoundQuarterfinal, Source: FromQualifying, Take: TopHalf},
		{Name: RoundSemifinal, Source: 0, Take: TopHalf},
	},
}

func tieredCascade() []Round {
	return []Round{
		{Name: RoundQuarterfinal, Source: FromQualifying, Take: TopHalf},
		{Name: RoundSemifinal, Source: 0, Take: TopHalf},
		{Name: RoundKualifikasi + " 1", Source: FromQualifying, Take: BottomHalf},
		{Name: RoundKualifikasi + " 2", Source: 2, Take: BottomHalf},
	}
}

// Rounds returns a copy of the cascade for n qualifying batches.
func Rounds(n int) []Round {
	return slices.Clone(Cascade[n])
}

// FinalName returns the final name for a 1-based rank or "" when out of range.
func FinalName(rank int) string {
	if rank < 1 || rank > len(FinalNames) {
		return ""
	}
	return FinalNames[rank-1]
}

// Finals returns the names of the n finals in rank order.
func Finals(n int) []string {
	if n > len(FinalNames) {
		n = len(FinalNames)
	}
	return slices.Clone(FinalNames[:n])
}

func (h Half) riders(m int) int {
	if h == TopHalf {
		return (m + 1) / 2
	}
	return m / 2
}
