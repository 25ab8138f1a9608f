// Package memory keeps all data in process memory.
// It backs the file based CLI commands and the service tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

type resultKey struct {
	race        int64
	participant int64
}

type data struct {
	seq          int64
	competitions map[int64]model.Competition
	classes      map[int64]*model.Class
	participants map[int64]model.Participant
	results      map[resultKey]model.RaceResult
}

func (d *data) clone() *data {
	ret := &data{
		seq:          d.seq,
		competitions: maps.Clone(d.competitions),
		classes:      make(map[int64]*model.Class, len(d.classes)),
		participants: maps.Clone(d.participants),
		results:      maps.Clone(d.results),
	}
	for id, c := range d.classes {
		ret.classes[id] = cloneClass(c)
	}
	return ret
}

// Store implements api.Repositories and api.TransactionManager.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    *data
}

var (
	_ api.Repositories          = (*Store)(nil)
	_ api.TransactionManager    = (*Store)(nil)
	_ api.CompetitionRepository = (*competitionRepo)(nil)
	_ api.ClassRepository       = (*classRepo)(nil)
	_ api.ParticipantRepository = (*participantRepo)(nil)
	_ api.ResultRepository      = (*resultRepo)(nil)
)

func New() *Store {
	return &Store{d: &data{
		competitions: make(map[int64]model.Competition),
		classes:      make(map[int64]*model.Class),
		participants: make(map[int64]model.Participant),
		results:      make(map[resultKey]model.RaceResult),
	}}
}

func (s *Store) Competition() api.CompetitionRepository { return &competitionRepo{s} }
func (s *Store) Class() api.ClassRepository             { return &classRepo{s} }
func (s *Store) Participant() api.ParticipantRepository { return &participantRepo{s} }
func (s *Store) Result() api.ResultRepository           { return &resultRepo{s} }

type txKey struct{}

// RunInTx serializes transactions. Changes are discarded if fn fails.
// Writes outside a transaction wait until the running one has finished,
// so a rollback never drops them.
//
//nolint:whitespace // editor/linter issue
func (s *Store) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	tx, _ := ctx.Value(txKey{}).(*Store)
	return tx == s
}

// lockWrite locks the data for a write. Outside of a transaction it also
// waits for a running transaction to finish.
func (s *Store) lockWrite(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) nextID() int64 {
	s.d.seq++
	return s.d.seq
}

type competitionRepo struct{ s *Store }

//nolint:whitespace // editor/linter issue
func (r *competitionRepo) Create(
	ctx context.Context,
	competition *model.Competition,
) error {
	defer r.s.lockWrite(ctx)()
	for _, c := range r.s.d.competitions {
		if c.ShortCode == competition.ShortCode {
			return fmt.Errorf("short code %s already in use", c.ShortCode)
		}
	}
	competition.ID = r.s.nextID()
	if competition.ExternalID.IsNil() {
		competition.ExternalID = uuid.Must(uuid.NewV4())
	}
	r.s.d.competitions[competition.ID] = *competition
	return nil
}

//nolint:whitespace // editor/linter issue
func (r *competitionRepo) LoadByID(ctx context.Context, id int64) (
	*model.Competition, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.d.competitions[id]; ok {
		return &c, nil
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // editor/linter issue
func (r *competitionRepo) LoadByShortCode(ctx context.Context, code string) (
	*model.Competition, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.d.competitions {
		if c.ShortCode == code {
			return &c, nil
		}
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // editor/linter issue
func (r *competitionRepo) LoadAll(ctx context.Context) (
	[]*model.Competition, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret := lo.MapToSlice(r.s.d.competitions,
		func(_ int64, c model.Competition) *model.Competition { return &c })
	slices.SortFunc(ret, func(a, b *model.Competition) int { return cmp.Compare(a.ID, b.ID) })
	return ret, nil
}

func (r *competitionRepo) DeleteByID(ctx context.Context, id int64) (int, error) {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.d.competitions[id]; !ok {
		return 0, nil
	}
	delete(r.s.d.competitions, id)
	for classID, c := range r.s.d.classes {
		if c.CompetitionID == id {
			r.s.deleteClass(classID)
		}
	}
	return 1, nil
}

type classRepo struct{ s *Store }

func (r *classRepo) Create(ctx context.Context, class *model.Class) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.d.competitions[class.CompetitionID]; !ok {
		return fmt.Errorf("competition %d: %w", class.CompetitionID, api.ErrNoRows)
	}
	class.ID = r.s.nextID()
	for _, st := range class.Stages {
		st.ID = r.s.nextID()
		st.ClassID = class.ID
		for _, b := range st.Batches {
			b.ID = r.s.nextID()
			b.StageID = st.ID
			for _, race := range b.Races {
				race.ID = r.s.nextID()
				race.BatchID = b.ID
			}
		}
	}
	r.s.d.classes[class.ID] = cloneClass(class)
	return nil
}

func (r *classRepo) LoadByID(ctx context.Context, id int64) (*model.Class, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.d.classes[id]; ok {
		return cloneClass(c), nil
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // editor/linter issue
func (r *classRepo) LoadByCompetitionID(ctx context.Context, competitionID int64) (
	[]*model.Class, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret := make([]*model.Class, 0)
	for _, c := range r.s.d.classes {
		if c.CompetitionID == competitionID {
			ret = append(ret, cloneClass(c))
		}
	}
	slices.SortFunc(ret, func(a, b *model.Class) int { return cmp.Compare(a.ID, b.ID) })
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (r *classRepo) LoadBatch(ctx context.Context, batchID int64) (
	*model.Batch, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b := r.s.findBatch(batchID); b != nil {
		return cloneBatch(b), nil
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // editor/linter issue
func (r *classRepo) LoadBatchByRaceID(ctx context.Context, raceID int64) (
	*model.Batch, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b := r.s.findBatchOfRace(raceID); b != nil {
		return cloneBatch(b), nil
	}
	return nil, api.ErrNoRows
}

//nolint:whitespace // editor/linter issue
func (r *classRepo) UpdateStageStatus(
	ctx context.Context,
	stageID int64,
	status model.StageStatus,
) (int, error) {
	defer r.s.lockWrite(ctx)()
	for _, c := range r.s.d.classes {
		for _, st := range c.Stages {
			if st.ID != stageID {
				continue
			}
			st.Status = status
			if rs, ok := status.RaceStatus().Get(); ok {
				for _, b := range st.Batches {
					for _, race := range b.Races {
						race.Status = rs
					}
				}
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (r *classRepo) DeleteByID(ctx context.Context, id int64) (int, error) {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.d.classes[id]; !ok {
		return 0, nil
	}
	r.s.deleteClass(id)
	return 1, nil
}

// caller holds the lock
func (s *Store) deleteClass(id int64) {
	for _, b := range s.d.classes[id].Batches() {
		for pid, p := range s.d.participants {
			if p.BatchID == b.ID {
				delete(s.d.participants, pid)
			}
		}
		for _, race := range b.Races {
			for k := range s.d.results {
				if k.race == race.ID {
					delete(s.d.results, k)
				}
			}
		}
	}
	delete(s.d.classes, id)
}

// caller holds the lock
func (s *Store) findBatch(batchID int64) *model.Batch {
	for _, c := range s.d.classes {
		for _, b := range c.Batches() {
			if b.ID == batchID {
				return b
			}
		}
	}
	return nil
}

// caller holds the lock
func (s *Store) findBatchOfRace(raceID int64) *model.Batch {
	for _, c := range s.d.classes {
		for _, b := range c.Batches() {
			for _, race := range b.Races {
				if race.ID == raceID {
					return b
				}
			}
		}
	}
	return nil
}

type participantRepo struct{ s *Store }

//nolint:whitespace // editor/linter issue
func (r *participantRepo) Create(
	ctx context.Context,
	participant *model.Participant,
) error {
	defer r.s.lockWrite(ctx)()
	if r.s.findBatch(participant.BatchID) == nil {
		return fmt.Errorf("batch %d: %w", participant.BatchID, api.ErrNoRows)
	}
	participant.ID = r.s.nextID()
	r.s.d.participants[participant.ID] = *participant
	return nil
}

//nolint:whitespace // editor/linter issue
func (r *participantRepo) LoadByBatchID(ctx context.Context, batchID int64) (
	[]model.Participant, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret := lo.Filter(lo.Values(r.s.d.participants), func(p model.Participant, _ int) bool {
		return p.BatchID == batchID
	})
	slices.SortFunc(ret, func(a, b model.Participant) int { return cmp.Compare(a.ID, b.ID) })
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (r *participantRepo) CountByBatchID(ctx context.Context, batchID int64) (
	int, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lo.CountBy(lo.Values(r.s.d.participants), func(p model.Participant) bool {
		return p.BatchID == batchID
	}), nil
}

func (r *participantRepo) DeleteByID(ctx context.Context, id int64) (int, error) {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.d.participants[id]; !ok {
		return 0, nil
	}
	delete(r.s.d.participants, id)
	for k := range r.s.d.results {
		if k.participant == id {
			delete(r.s.d.results, k)
		}
	}
	return 1, nil
}

type resultRepo struct{ s *Store }

//nolint:whitespace // editor/linter issue
func (r *resultRepo) LoadByRaceID(ctx context.Context, raceID int64) (
	[]model.RaceResult, error,
) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret := make([]model.RaceResult, 0)
	for k, v := range r.s.d.results {
		if k.race == raceID {
			ret = append(ret, v)
		}
	}
	slices.SortFunc(ret, func(a, b model.RaceResult) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})
	return ret, nil
}

func (r *resultRepo) Upsert(ctx context.Context, result model.RaceResult) error {
	defer r.s.lockWrite(ctx)()
	if r.s.findBatchOfRace(result.RaceID) == nil {
		return fmt.Errorf("race %d: %w", result.RaceID, api.ErrNoRows)
	}
	if _, ok := r.s.d.participants[result.ParticipantID]; !ok {
		return fmt.Errorf("participant %d: %w", result.ParticipantID, api.ErrNoRows)
	}
	r.s.d.results[resultKey{race: result.RaceID, participant: result.ParticipantID}] = result
	return nil
}

func cloneClass(c *model.Class) *model.Class {
	ret := *c
	ret.Stages = make([]*model.Stage, len(c.Stages))
	for i, st := range c.Stages {
		s := *st
		s.Batches = lo.Map(st.Batches, func(b *model.Batch, _ int) *model.Batch {
			return cloneBatch(b)
		})
		ret.Stages[i] = &s
	}
	return &ret
}

func cloneBatch(b *model.Batch) *model.Batch {
	ret := *b
	ret.Races = lo.Map(b.Races, func(r *model.Race, _ int) *model.Race {
		race := *r
		return &race
	})
	return &ret
}
