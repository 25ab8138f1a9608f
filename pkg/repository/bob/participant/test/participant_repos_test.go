package participant_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	bobRepos "github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob"
	base "github.com/kumpetisi/pushbike-service-manager-go/testsupport/basedata"
	"github.com/kumpetisi/pushbike-service-manager-go/testsupport/testdb"
)

func TestParticipants(t *testing.T) {
	pool := testdb.InitTestDb()
	repos := bobRepos.NewRepositoriesFromPool(pool)
	tm := bobRepos.NewTransactionManagerFromPool(pool)
	ctx := context.Background()
	_, class := base.CreateSampleClass(repos, tm)
	batch := class.Stages[0].Batches[0]

	riders := base.SampleRiders(repos, batch.ID, "Ayu", "Bunga", "Citra")

	got, err := repos.Participant().LoadByBatchID(ctx, batch.ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, riders, got)

	n, err := repos.Participant().CountByBatchID(ctx, batch.ID)
	assert.NilError(t, err)
	assert.Equal(t, 3, n)

	other, err := repos.Participant().CountByBatchID(ctx, class.Stages[0].Batches[1].ID)
	assert.NilError(t, err)
	assert.Equal(t, 0, other)

	deleted, err := repos.Participant().DeleteByID(ctx, riders[1].ID)
	assert.NilError(t, err)
	assert.Equal(t, 1, deleted)
	got, err = repos.Participant().LoadByBatchID(ctx, batch.ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, []model.Participant{riders[0], riders[2]}, got)
}

func TestCreateUnknownBatch(t *testing.T) {
	pool := testdb.InitTestDb()
	repos := bobRepos.NewRepositoriesFromPool(pool)
	err := repos.Participant().Create(context.Background(),
		&model.Participant{BatchID: 4711, Name: "Nobody"})
	assert.Assert(t, err != nil)
}
