//nolint:funlen // ok for tests
package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kumpetisi/pushbike-service-manager-go/log"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/standings"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/memory"
)

func sampleCompetition() *model.Competition {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return &model.Competition{
		Name: "Kejuaraan Bandung", ShortCode: "kb2024",
		StartDate: start, EndDate: start.AddDate(0, 0, 1),
	}
}

func setupClass(t *testing.T, n, m int) (*Service, *model.Class) {
	t.Helper()
	return setupClassOn(t, New(WithRepositories(memory.New())), n, m)
}

func setupClassOn(t *testing.T, s *Service, n, m int) (*Service, *model.Class) {
	t.Helper()
	ctx := context.Background()
	c := sampleCompetition()
	require.NoError(t, s.CreateCompetition(ctx, c))
	class, err := s.CreateClass(ctx, CreateClassRequest{
		CompetitionID: c.ID, Name: "2020 Girl", NumBatches: n, MaxParticipants: m,
	})
	require.NoError(t, err)
	return s, class
}

func TestCreateCompetition(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateCompetition(ctx, sampleCompetition()))

	tests := []struct {
		name    string
		modify  func(c *model.Competition)
		wantErr error
	}{
		{
			name:    "duplicate short code",
			modify:  func(c *model.Competition) {},
			wantErr: ErrAlreadyExists,
		},
		{
			name:    "invalid short code",
			modify:  func(c *model.Competition) { c.ShortCode = "KB 2024" },
			wantErr: model.ErrInvalidShortCode,
		},
		{
			name: "end before start",
			modify: func(c *model.Competition) {
				c.ShortCode = "other"
				c.EndDate = c.StartDate.AddDate(0, 0, -1)
			},
			wantErr: model.ErrInvalidDateRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleCompetition()
			tt.modify(c)
			assert.ErrorIs(t, s.CreateCompetition(ctx, c), tt.wantErr)
		})
	}

	all, err := s.Competitions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.CompetitionByShortCode(ctx, "nothere")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.CompetitionByShortCode(ctx, "kb2024")
	require.NoError(t, err)
	assert.Equal(t, "Kejuaraan Bandung", got.Name)
	require.NoError(t, s.DeleteCompetition(ctx, "kb2024"))
	_, err = s.CompetitionByShortCode(ctx, "kb2024")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateClass(t *testing.T) {
	s, class := setupClass(t, 2, 4)
	ctx := context.Background()

	names := make([]string, 0)
	for _, b := range class.Batches() {
		names = append(names, b.Name)
		assert.NotZero(t, b.ID)
	}
	assert.Equal(t, []string{"Batch 1", "Batch 2", "Final Grand Champion", "Final Champion"},
		names)

	got, err := s.ClassBySlug(ctx, "kb2024", "2020-girl")
	require.NoError(t, err)
	assert.Equal(t, class.ID, got.ID)

	_, err = s.ClassBySlug(ctx, "kb2024", "2019-boy")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateClass(ctx, CreateClassRequest{
		CompetitionID: class.CompetitionID, Name: "too big", NumBatches: 9, MaxParticipants: 8,
	})
	assert.ErrorIs(t, err, bracket.ErrConfiguration)

	_, err = s.CreateClass(ctx, CreateClassRequest{
		CompetitionID: 999, Name: "orphan", NumBatches: 1, MaxParticipants: 8,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStageStatus(t *testing.T) {
	s, class := setupClass(t, 2, 4)
	ctx := context.Background()
	stage := class.Stages[0]

	require.NoError(t, s.SetStageStatus(ctx, stage.ID, model.StageCompleted))
	got, err := s.Class(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageCompleted, got.Stages[0].Status)
	assert.Equal(t, model.RaceCompleted, got.Stages[0].Batches[0].Races[0].Status)

	assert.ErrorIs(t, s.SetStageStatus(ctx, stage.ID, "done"), model.ErrUnknownStatus)
	assert.ErrorIs(t, s.SetStageStatus(ctx, -1, model.StageInProgress), ErrNotFound)
}

func TestRegisterParticipant(t *testing.T) {
	s, class := setupClass(t, 2, 2)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]

	for _, name := range []string{"Ayu", "Bunga"} {
		require.NoError(t, s.RegisterParticipant(ctx,
			&model.Participant{BatchID: batch.ID, Name: name}))
	}
	err := s.RegisterParticipant(ctx, &model.Participant{BatchID: batch.ID, Name: "Citra"})
	assert.ErrorIs(t, err, ErrBatchFull)

	err = s.RegisterParticipant(ctx, &model.Participant{BatchID: -1, Name: "Dewi"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.RegisterParticipant(ctx, &model.Participant{BatchID: batch.ID})
	assert.ErrorIs(t, err, model.ErrMissingName)

	riders, err := s.Participants(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, riders, 2)
}

func TestResultsAndStandings(t *testing.T) {
	s, class := setupClass(t, 2, 4)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	a := &model.Participant{BatchID: batch.ID, Name: "A"}
	b := &model.Participant{BatchID: batch.ID, Name: "B"}
	require.NoError(t, s.RegisterParticipant(ctx, a))
	require.NoError(t, s.RegisterParticipant(ctx, b))

	moto1, moto2 := batch.Races[0].ID, batch.Races[1].ID
	require.NoError(t, s.SaveRaceResults(ctx, moto1, []model.RaceResult{
		{RaceID: moto1, ParticipantID: a.ID, Placing: model.StartFinish{Start: 1, Finish: 1}},
		{RaceID: moto1, ParticipantID: b.ID, Placing: model.StartFinish{Start: 2, Finish: 2}},
	}))
	require.NoError(t, s.SaveRaceResults(ctx, moto2, []model.RaceResult{
		{RaceID: moto2, ParticipantID: a.ID, Placing: model.StartFinish{Start: 2, Finish: 2}},
		{RaceID: moto2, ParticipantID: b.ID, Placing: model.StartFinish{Start: 1, Finish: 1}},
	}))

	// equal score, B won the last race
	got, err := s.BatchStandings(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Participant.Name)
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, "3.012", got[0].AdjustedScore.StringFixed(3))
	assert.Equal(t, 2, got[1].FinalPosition)

	seed, err := s.BatchStandings(ctx, batch.ID, standings.WithMode(standings.ModeSeed))
	require.NoError(t, err)
	assert.Equal(t, "A", seed[0].Participant.Name)

	// duplicate finish rejects the whole set
	err = s.SaveRaceResults(ctx, moto1, []model.RaceResult{
		{RaceID: moto1, ParticipantID: a.ID, Placing: model.StartFinish{Start: 1, Finish: 2}},
		{RaceID: moto1, ParticipantID: b.ID, Placing: model.StartFinish{Start: 2, Finish: 2}},
	})
	assert.ErrorIs(t, err, standings.ErrDuplicatePosition)
	got, err = s.BatchStandings(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got[0].Participant.Name)

	_, err = s.BatchStandings(ctx, -1)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveRaceResults(ctx, -5, []model.RaceResult{{RaceID: -5, ParticipantID: a.ID}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRaceResultsInSeveralCalls(t *testing.T) {
	s, class := setupClass(t, 2, 4)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	riders := make([]*model.Participant, 0, 3)
	for _, name := range []string{"A", "B", "C"} {
		p := &model.Participant{BatchID: batch.ID, Name: name}
		require.NoError(t, s.RegisterParticipant(ctx, p))
		riders = append(riders, p)
	}
	race := batch.Races[0].ID
	result := func(p *model.Participant, finish int) model.RaceResult {
		return model.RaceResult{
			RaceID: race, ParticipantID: p.ID,
			Placing: model.StartFinish{Start: finish, Finish: finish},
		}
	}

	require.NoError(t, s.SaveRaceResults(ctx, race, []model.RaceResult{result(riders[0], 1)}))

	tests := []struct {
		name    string
		results []model.RaceResult
		wantErr error
	}{
		{
			name:    "finish taken by a stored result",
			results: []model.RaceResult{result(riders[1], 1)},
			wantErr: standings.ErrDuplicatePosition,
		},
		{
			name:    "finish beyond batch capacity",
			results: []model.RaceResult{result(riders[1], 5)},
			wantErr: standings.ErrInvalidPosition,
		},
		{
			name:    "free finish",
			results: []model.RaceResult{result(riders[1], 2)},
		},
		{
			name: "stored rider moves and frees the finish",
			results: []model.RaceResult{
				result(riders[0], 3),
				result(riders[2], 1),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SaveRaceResults(ctx, race, tt.results)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	stored, err := s.Repositories().Result().LoadByRaceID(ctx, race)
	require.NoError(t, err)
	finishes := lo.SliceToMap(stored, func(r model.RaceResult) (int64, int) {
		return r.ParticipantID, model.FinishOf(r.Placing)
	})
	assert.Equal(t, map[int64]int{
		riders[0].ID: 3,
		riders[1].ID: 2,
		riders[2].ID: 1,
	}, finishes)
}

type brokenMeter struct {
	noop.Meter
}

func (brokenMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("instrument rejected")
}

func TestBrokenMeterIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s := New(
		WithMeter(brokenMeter{}),
		WithLogger(log.New(&buf, log.DebugLevel)))

	assert.Contains(t, buf.String(), "could not create counter")
	assert.Contains(t, buf.String(), "psm.results.saved")
	assert.Contains(t, buf.String(), "instrument rejected")

	// the no-op counters keep the service usable
	_, class := setupClassOn(t, s, 1, 4)
	batch := class.Stages[0].Batches[0]
	p := &model.Participant{BatchID: batch.ID, Name: "A"}
	require.NoError(t, s.RegisterParticipant(context.Background(), p))
	assert.NoError(t, s.SaveRaceResults(context.Background(), batch.Races[0].ID,
		[]model.RaceResult{{RaceID: batch.Races[0].ID, ParticipantID: p.ID,
			Placing: model.SimplePosition{Position: 1}}}))
}
