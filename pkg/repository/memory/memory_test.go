package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

func setup(t *testing.T) (*Store, *model.Class) {
	t.Helper()
	ctx := context.Background()
	s := New()
	c := &model.Competition{Name: "test", ShortCode: "test"}
	require.NoError(t, s.Competition().Create(ctx, c))
	structure, err := bracket.Generate(2, 4)
	require.NoError(t, err)
	class := &model.Class{
		CompetitionID: c.ID, Name: "2020 Girl",
		NumQualifyingBatches: 2, MaxParticipants: 4,
		Stages: structure.Stages,
	}
	require.NoError(t, s.Class().Create(ctx, class))
	return s, class
}

func TestClassRoundTrip(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()

	got, err := s.Class().LoadByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, class, got)

	// loaded copies are detached from the store
	got.Stages[0].Name = "changed"
	again, _ := s.Class().LoadByID(ctx, class.ID)
	assert.Equal(t, bracket.QualifyingStageName, again.Stages[0].Name)

	b, err := s.Class().LoadBatch(ctx, class.Stages[0].Batches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Batch 1", b.Name)

	_, err = s.Class().LoadBatch(ctx, -1)
	assert.ErrorIs(t, err, api.ErrNoRows)

	second := class.Stages[0].Batches[1]
	b, err = s.Class().LoadBatchByRaceID(ctx, second.Races[0].ID)
	require.NoError(t, err)
	assert.Equal(t, second, b)

	_, err = s.Class().LoadBatchByRaceID(ctx, -1)
	assert.ErrorIs(t, err, api.ErrNoRows)
}

func TestResultUpsert(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	p := &model.Participant{BatchID: batch.ID, Number: "7", Name: "Rider"}
	require.NoError(t, s.Participant().Create(ctx, p))

	race := batch.Races[0].ID
	r := model.RaceResult{RaceID: race, ParticipantID: p.ID, Placing: model.StartFinish{Start: 1, Finish: 2}}
	require.NoError(t, s.Result().Upsert(ctx, r))
	r.Placing = model.StartFinish{Start: 1, Finish: 1}
	require.NoError(t, s.Result().Upsert(ctx, r))

	got, err := s.Result().LoadByRaceID(ctx, race)
	require.NoError(t, err)
	assert.Equal(t, []model.RaceResult{r}, got)

	err = s.Result().Upsert(ctx, model.RaceResult{RaceID: -1, ParticipantID: p.ID})
	assert.ErrorIs(t, err, api.ErrNoRows)
}

func TestRunInTxRollsBack(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	errBoom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Participant().Create(ctx,
			&model.Participant{BatchID: batch.ID, Name: "A"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	n, _ := s.Participant().CountByBatchID(ctx, batch.ID)
	assert.Equal(t, 0, n)

	err = s.RunInTx(ctx, func(ctx context.Context) error {
		return s.Participant().Create(ctx, &model.Participant{BatchID: batch.ID, Name: "B"})
	})
	assert.NoError(t, err)
	n, _ = s.Participant().CountByBatchID(ctx, batch.ID)
	assert.Equal(t, 1, n)
}

func TestWriteOutsideTxSurvivesRollback(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	errBoom := errors.New("boom")
	started := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-started
		assert.NoError(t, s.Participant().Create(ctx,
			&model.Participant{BatchID: batch.ID, Name: "outside"}))
	}()
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		close(started)
		if err := s.Participant().Create(ctx,
			&model.Participant{BatchID: batch.ID, Name: "inside"}); err != nil {
			return err
		}
		time.Sleep(20 * time.Millisecond)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	wg.Wait()

	got, err := s.Participant().LoadByBatchID(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "outside", got[0].Name)
}

func TestNestedRunInTx(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		return s.RunInTx(ctx, func(ctx context.Context) error {
			return s.Participant().Create(ctx, &model.Participant{BatchID: batch.ID, Name: "A"})
		})
	})
	require.NoError(t, err)
	n, _ := s.Participant().CountByBatchID(ctx, batch.ID)
	assert.Equal(t, 1, n)
}

func TestDeleteCompetitionCascades(t *testing.T) {
	s, class := setup(t)
	ctx := context.Background()
	n, err := s.Competition().DeleteByID(ctx, class.CompetitionID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Class().LoadByID(ctx, class.ID)
	assert.ErrorIs(t, err, api.ErrNoRows)
}
