package natskv

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/testsupport/natstest"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()
	nc := natstest.StartEmbeddedNATS(t)
	r, err := NewResultRepository(context.Background(), nc,
		WithBucket("test_results"), WithMaxRetries(20))
	require.NoError(t, err)
	return r.(*repo)
}

func TestUpsertReplaces(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	got, err := r.LoadByRaceID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	second := model.RaceResult{RaceID: 1, ParticipantID: 20,
		Placing: model.SimplePosition{Position: 2}}
	first := model.RaceResult{RaceID: 1, ParticipantID: 10,
		Placing: model.StartFinish{Start: 2, Finish: 3}}
	require.NoError(t, r.Upsert(ctx, second))
	require.NoError(t, r.Upsert(ctx, first))
	first.Placing = model.StartFinish{Start: 2, Finish: 1}
	first.Penalty = 1
	require.NoError(t, r.Upsert(ctx, first))

	got, err = r.LoadByRaceID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.RaceResult{first, second}, got)

	// other races are separate keys
	got, err = r.LoadByRaceID(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentUpserts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			errs <- r.Upsert(ctx, model.RaceResult{
				RaceID: 5, ParticipantID: int64(pid),
				Placing: model.StartFinish{Start: pid, Finish: pid},
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := r.LoadByRaceID(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, got, n)
}

func TestMerge(t *testing.T) {
	one, two := 1, 2
	records := []model.ResultRecord{
		{RaceID: 1, ParticipantID: 3, Position: &one},
		{RaceID: 1, ParticipantID: 1, Position: &two},
	}
	got := merge(records, model.ResultRecord{RaceID: 1, ParticipantID: 3, Position: &two})
	assert.Equal(t, []int64{1, 3}, []int64{got[0].ParticipantID, got[1].ParticipantID})
	assert.Equal(t, 2, *got[1].Position)
}
