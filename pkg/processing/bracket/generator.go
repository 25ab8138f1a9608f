package bracket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

var (
	ErrConfiguration     = errors.New("invalid bracket configuration")
	ErrInvalidBatchCount = errors.New("number of qualifying batches out of range")
	ErrInvalidCapacity   = errors.New("max participants per batch out of range")
)

const QualifyingStageName = "Qualifying"

// Structure is the generated skeleton of a class.
type Structure struct {
	NumBatches      int
	MaxParticipants int
	Stages          []*model.Stage
}

// Batches returns all batches in emission order.
func (s *Structure) Batches() []*model.Batch {
	ret := make([]*model.Batch, 0)
	for _, st := range s.Stages {
		ret = append(ret, st.Batches...)
	}
	return ret
}

// FinalBatches returns the batches of the final stages in rank order.
func (s *Structure) FinalBatches() []*model.Batch {
	return s.batchesOfKind(model.KindFinal)
}

func (s *Structure) QualifyingBatches() []*model.Batch {
	return s.batchesOfKind(model.KindQualifying)
}

func (s *Structure) IntermediateBatches() []*model.Batch {
	return s.batchesOfKind(model.KindIntermediate)
}

func (s *Structure) batchesOfKind(kind model.StageKind) []*model.Batch {
	ret := make([]*model.Batch, 0)
	for _, st := range s.Stages {
		if st.Kind == kind {
			ret = append(ret, st.Batches...)
		}
	}
	return ret
}

// MotosPerBatch returns the number of races a batch gets.
// A class with a single batch rides three motos.
func MotosPerBatch(numBatches int) int {
	if numBatches == 1 {
		return 3
	}
	return 2
}

type Option func(*generator)

// WithIDSequence replaces the default counters. The sequence is used for
// stages, batches and races alike.
func WithIDSequence(next func() int64) Option {
	return func(g *generator) {
		g.stageID = next
		g.batchID = next
		g.raceID = next
	}
}

func WithLogger(l *log.Logger) Option {
	return func(g *generator) {
		g.log = l
	}
}

type generator struct {
	n, m    int
	stageID func() int64
	batchID func() int64
	raceID  func() int64
	log     *log.Logger
	names   map[string]struct{}
	stages  []*model.Stage
}

func counter() func() int64 {
	var i int64
	return func() int64 {
		i++
		return i
	}
}

func Validate(n, m int) error {
	if n < MinBatches || n > MaxBatches {
		return fmt.Errorf("%w: %w: %d not in [%d,%d]",
			ErrConfiguration, ErrInvalidBatchCount, n, MinBatches, MaxBatches)
	}
	if m < MinRiders || m > MaxRiders {
		return fmt.Errorf("%w: %w: %d not in [%d,%d]",
			ErrConfiguration, ErrInvalidCapacity, m, MinRiders, MaxRiders)
	}
	return nil
}

// Generate builds the stages, batches and races of a class with n qualifying
// batches and at most m riders per batch. The result only depends on n and m,
// ids are assigned in emission order.
func Generate(n, m int, opts ...Option) (*Structure, error) {
	if err := Validate(n, m); err != nil {
		return nil, err
	}
	g := &generator{
		n:       n,
		m:       m,
		stageID: counter(),
		batchID: counter(),
		raceID:  counter(),
		log:     log.Default().Named("bracket"),
		names:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	if n == 1 {
		g.addStage(FinalNames[0], model.KindFinal, []string{FinalNames[0]})
	} else {
		g.qualifying()
		g.intermediates()
		g.finals()
	}
	g.log.Debug("generated class structure",
		log.Int("batches", n),
		log.Int("maxParticipants", m),
		log.Int("stages", len(g.stages)))
	return &Structure{NumBatches: n, MaxParticipants: m, Stages: g.stages}, nil
}

func (g *generator) qualifying() {
	names := make([]string, g.n)
	for i := range names {
		names[i] = fmt.Sprintf("Batch %d", i+1)
	}
	g.addStage(QualifyingStageName, model.KindQualifying, names)
}

func (g *generator) intermediates() {
	rounds := Cascade[g.n]
	batchCount := make([]int, len(rounds))
	for i, r := range rounds {
		source := g.n
		if r.Source != FromQualifying {
			source = batchCount[r.Source]
		}
		advancing := source * r.Take.riders(g.m)
		batchCount[i] = ceilDiv(advancing, g.m)
		if batchCount[i] == 0 {
			g.log.Debug("round without riders skipped", log.String("round", r.Name))
			continue
		}
		g.addStage(r.Name, model.KindIntermediate, roundBatchNames(r.Name, batchCount[i]))
	}
}

func (g *generator) finals() {
	for _, name := range Finals(g.n) {
		g.addStage(name, model.KindFinal, []string{name})
	}
}

// single batch rounds carry the round name, parallel ones get a letter suffix
func roundBatchNames(round string, count int) []string {
	if count == 1 {
		return []string{round}
	}
	ret := make([]string, count)
	for i := range ret {
		ret[i] = fmt.Sprintf("%s %c", round, 'A'+i)
	}
	return ret
}

//nolint:whitespace // editor/linter issue
func (g *generator) addStage(
	name string,
	kind model.StageKind,
	batchNames []string,
) {
	stage := &model.Stage{
		Name:    name,
		Order:   len(g.stages) + 1,
		Kind:    kind,
		Status:  model.StageScheduled,
		Batches: make([]*model.Batch, 0, len(batchNames)),
	}
	for _, bn := range batchNames {
		if _, ok := g.names[bn]; ok {
			g.log.Debug("duplicate batch name skipped", log.String("name", bn))
			continue
		}
		g.names[bn] = struct{}{}
		stage.Batches = append(stage.Batches, g.newBatch(bn, raceType(kind, name)))
	}
	if len(stage.Batches) == 0 {
		return
	}
	stage.ID = g.stageID()
	for _, b := range stage.Batches {
		b.StageID = stage.ID
	}
	g.stages = append(g.stages, stage)
}

func (g *generator) newBatch(name string, rt model.RaceType) *model.Batch {
	b := &model.Batch{
		ID:              g.batchID(),
		Name:            name,
		MaxParticipants: g.m,
	}
	motos := MotosPerBatch(g.n)
	b.Races = make([]*model.Race, motos)
	for i := range motos {
		b.Races[i] = &model.Race{
			ID:      g.raceID(),
			BatchID: b.ID,
			Name:    fmt.Sprintf("Moto %d", i+1),
			Order:   i + 1,
			Type:    rt,
			Status:  model.RaceScheduled,
		}
	}
	return b
}

func raceType(kind model.StageKind, stageName string) model.RaceType {
	switch kind {
	case model.KindFinal:
		return model.RaceFinal
	case model.KindIntermediate:
		if strings.HasPrefix(stageName, RoundKualifikasi) {
			return model.RaceQualifying
		}
		return model.RaceSemifinal
	default:
		return model.RaceQualifying
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
