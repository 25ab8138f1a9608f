package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/standings"
)

// SaveRaceResults stores the results of one race. Results may arrive in
// several calls: the new set is merged over the stored one and the merged
// set is checked before any write. Duplicate positions, positions beyond the
// batch capacity and invalid values reject the whole set.
// Results without placing are stored as not recorded.
//
//nolint:whitespace // editor/linter issue
func (s *Service) SaveRaceResults(
	ctx context.Context,
	raceID int64,
	results []model.RaceResult,
) (err error) {
	ctx, span := s.tracer.Start(ctx, "SaveRaceResults")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("raceId", raceID),
		attribute.Int("results", len(results)))

	results = standings.Normalize(results)
	if err = standings.ValidateRaceResults(raceID, results); err != nil {
		return err
	}
	err = s.tm.RunInTx(ctx, func(ctx context.Context) error {
		batch, err := s.repos.Class().LoadBatchByRaceID(ctx, raceID)
		if err != nil {
			return notFound(err, "race %d", raceID)
		}
		stored, err := s.store.GetResultsByRace(ctx, raceID)
		if err != nil {
			return err
		}
		if err := standings.ValidateRaceResults(raceID,
			mergeResults(stored, results),
			standings.WithMaxPosition(batch.MaxParticipants)); err != nil {
			return err
		}
		for _, r := range results {
			if err := s.store.SaveResult(ctx, r); err != nil {
				return notFound(err, "race %d participant %d", r.RaceID, r.ParticipantID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.resultsSaved.Add(ctx, int64(len(results)))
	return nil
}

// mergeResults replaces stored results by incoming ones of the same participant.
func mergeResults(stored, incoming []model.RaceResult) []model.RaceResult {
	replaced := lo.SliceToMap(incoming, func(r model.RaceResult) (int64, struct{}) {
		return r.ParticipantID, struct{}{}
	})
	ret := lo.Reject(stored, func(r model.RaceResult, _ int) bool {
		_, ok := replaced[r.ParticipantID]
		return ok
	})
	return append(ret, incoming...)
}

// BatchStandings ranks the participants of a batch by the results of its races.
//
//nolint:whitespace // editor/linter issue
func (s *Service) BatchStandings(
	ctx context.Context,
	batchID int64,
	opts ...standings.Option,
) (ret []standings.Standing, err error) {
	ctx, span := s.tracer.Start(ctx, "BatchStandings")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int64("batchId", batchID))
	start := time.Now()

	batch, err := s.repos.Class().LoadBatch(ctx, batchID)
	if err != nil {
		return nil, notFound(err, "batch %d", batchID)
	}
	participants, err := s.store.GetParticipantsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resultsByRace := make(map[int64][]model.RaceResult, len(batch.Races))
	for _, race := range batch.Races {
		if resultsByRace[race.ID], err = s.store.GetResultsByRace(ctx, race.ID); err != nil {
			return nil, err
		}
	}
	races := lo.Map(batch.Races, func(r *model.Race, _ int) standings.RaceRef {
		return standings.RaceRef{ID: r.ID, Order: r.Order}
	})
	opts = append([]standings.Option{
		standings.WithLogger(s.log.Named("standings")),
	}, opts...)
	ret = standings.Aggregate(races, participants, resultsByRace, opts...)
	s.log.Debug("standings computed",
		log.String("batch", batch.Name),
		log.Int("participants", len(ret)),
		log.Since("took", start))
	return ret, nil
}
