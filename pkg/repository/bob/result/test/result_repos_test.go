package result_test

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	bobRepos "github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob"
	base "github.com/kumpetisi/pushbike-service-manager-go/testsupport/basedata"
	"github.com/kumpetisi/pushbike-service-manager-go/testsupport/testdb"
)

func TestUpsert(t *testing.T) {
	pool := testdb.InitTestDb()
	repos := bobRepos.NewRepositoriesFromPool(pool)
	tm := bobRepos.NewTransactionManagerFromPool(pool)
	_, class := base.CreateSampleClass(repos, tm)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	riders := base.SampleRiders(repos, batch.ID, "Ayu", "Bunga")
	raceID := batch.Races[0].ID

	first := model.RaceResult{
		RaceID: raceID, ParticipantID: riders[0].ID,
		Placing: model.StartFinish{Start: 1, Finish: 2},
	}
	assert.NilError(t, repos.Result().Upsert(ctx, first))
	// second save replaces the first one
	first.Placing = model.StartFinish{Start: 1, Finish: 1}
	first.Penalty = 2
	assert.NilError(t, repos.Result().Upsert(ctx, first))

	legacy := model.RaceResult{
		RaceID: raceID, ParticipantID: riders[1].ID,
		Placing: model.SimplePosition{Position: 2},
	}
	assert.NilError(t, repos.Result().Upsert(ctx, legacy))

	got, err := repos.Result().LoadByRaceID(ctx, raceID)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []model.RaceResult{first, legacy})

	err = repos.Result().Upsert(ctx, model.RaceResult{RaceID: -1, ParticipantID: riders[0].ID})
	assert.Assert(t, errors.Is(err, api.ErrNoRows))
}

func TestUpsertInTxRollsBack(t *testing.T) {
	pool := testdb.InitTestDb()
	repos := bobRepos.NewRepositoriesFromPool(pool)
	tm := bobRepos.NewTransactionManagerFromPool(pool)
	_, class := base.CreateSampleClass(repos, tm)
	ctx := context.Background()
	batch := class.Stages[0].Batches[0]
	riders := base.SampleRiders(repos, batch.ID, "Ayu")
	errBoom := errors.New("boom")

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := repos.Result().Upsert(ctx, model.RaceResult{
			RaceID: batch.Races[0].ID, ParticipantID: riders[0].ID,
			Placing: model.StartFinish{Start: 1, Finish: 1},
		}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	got, err := repos.Result().LoadByRaceID(ctx, batch.Races[0].ID)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 0)
}
