// Package bob stores competitions in PostgreSQL using the bob query builder.
package bob

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/class"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/competition"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/participant"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/result"
)

type bobRepositories struct {
	competitionRepository api.CompetitionRepository
	classRepository       api.ClassRepository
	participantRepository api.ParticipantRepository
	resultRepository      api.ResultRepository
}

var _ api.Repositories = (*bobRepositories)(nil)

func NewRepositoriesFromPool(pool *pgxpool.Pool) api.Repositories {
	return NewRepositories(NewDB(pool))
}

func NewRepositories(db bob.DB) api.Repositories {
	return &bobRepositories{
		competitionRepository: competition.NewCompetitionRepository(db),
		classRepository:       class.NewClassRepository(db),
		participantRepository: participant.NewParticipantRepository(db),
		resultRepository:      result.NewResultRepository(db),
	}
}

// NewDB wraps the pool for use with bob.
func NewDB(pool *pgxpool.Pool) bob.DB {
	return bob.NewDB(stdlib.OpenDBFromPool(pool))
}

func (r *bobRepositories) Competition() api.CompetitionRepository {
	return r.competitionRepository
}

func (r *bobRepositories) Class() api.ClassRepository {
	return r.classRepository
}

func (r *bobRepositories) Participant() api.ParticipantRepository {
	return r.participantRepository
}

func (r *bobRepositories) Result() api.ResultRepository {
	return r.resultRepository
}
