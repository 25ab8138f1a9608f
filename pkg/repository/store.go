package repository

import (
	"context"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

type resultStore struct {
	repos api.Repositories
}

var _ api.ResultStore = (*resultStore)(nil)

func NewResultStore(repos api.Repositories) api.ResultStore {
	return &resultStore{repos: repos}
}

//nolint:whitespace // editor/linter issue
func (s *resultStore) GetParticipantsByBatch(ctx context.Context, batchID int64) (
	[]model.Participant, error,
) {
	return s.repos.Participant().LoadByBatchID(ctx, batchID)
}

//nolint:whitespace // editor/linter issue
func (s *resultStore) GetResultsByRace(ctx context.Context, raceID int64) (
	[]model.RaceResult, error,
) {
	return s.repos.Result().LoadByRaceID(ctx, raceID)
}

func (s *resultStore) SaveResult(ctx context.Context, result model.RaceResult) error {
	return s.repos.Result().Upsert(ctx, result)
}

type overlay struct {
	api.Repositories
	results api.ResultRepository
}

// WithResultRepository keeps everything from base except the result repository.
//
//nolint:whitespace // editor/linter issue
func WithResultRepository(
	base api.Repositories,
	results api.ResultRepository,
) api.Repositories {
	return &overlay{Repositories: base, results: results}
}

func (o *overlay) Result() api.ResultRepository {
	return o.results
}
