package api

import (
	"context"
	"errors"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

var ErrNoRows = errors.New("no rows in result set")

type Repositories interface {
	Competition() CompetitionRepository
	Class() ClassRepository
	Participant() ParticipantRepository
	Result() ResultRepository
}

type CompetitionRepository interface {
	Create(ctx context.Context, competition *model.Competition) error
	LoadByID(ctx context.Context, id int64) (*model.Competition, error)
	LoadByShortCode(ctx context.Context, code string) (*model.Competition, error)
	LoadAll(ctx context.Context) ([]*model.Competition, error)
	DeleteByID(ctx context.Context, id int64) (int, error)
}

// ClassRepository stores a class together with its stage/batch/race skeleton.
type ClassRepository interface {
	// Create stores the class and its skeleton. The ids of all entities are
	// replaced by the ids assigned by the store.
	Create(ctx context.Context, class *model.Class) error
	LoadByID(ctx context.Context, id int64) (*model.Class, error)
	LoadByCompetitionID(ctx context.Context, competitionID int64) ([]*model.Class, error)
	LoadBatch(ctx context.Context, batchID int64) (*model.Batch, error)
	// LoadBatchByRaceID returns the batch the race belongs to.
	LoadBatchByRaceID(ctx context.Context, raceID int64) (*model.Batch, error)
	UpdateStageStatus(ctx context.Context, stageID int64, status model.StageStatus) (
		int, error)
	DeleteByID(ctx context.Context, id int64) (int, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *model.Participant) error
	LoadByBatchID(ctx context.Context, batchID int64) ([]model.Participant, error)
	CountByBatchID(ctx context.Context, batchID int64) (int, error)
	DeleteByID(ctx context.Context, id int64) (int, error)
}

// ResultRepository holds at most one result per race and participant.
type ResultRepository interface {
	LoadByRaceID(ctx context.Context, raceID int64) ([]model.RaceResult, error)
	// Upsert replaces the result of the participant in the race.
	Upsert(ctx context.Context, result model.RaceResult) error
}

// ResultStore is what the standings computation needs from storage.
type ResultStore interface {
	GetParticipantsByBatch(ctx context.Context, batchID int64) ([]model.Participant, error)
	GetResultsByRace(ctx context.Context, raceID int64) ([]model.RaceResult, error)
	SaveResult(ctx context.Context, result model.RaceResult) error
}

type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
