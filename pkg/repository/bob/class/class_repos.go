//nolint:whitespace // can't make both editor and linter happy
package class

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/lo"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/db/dbinfo"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	bobCtx "github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/context"
)

type (
	repo struct {
		conn bob.Executor
	}
	classRow struct {
		ID              int64  `db:"id"`
		CompetitionID   int64  `db:"competition_id"`
		Name            string `db:"name"`
		NumBatches      int    `db:"num_batches"`
		MaxParticipants int    `db:"max_participants"`
	}
	stageRow struct {
		ID      int64  `db:"id"`
		ClassID int64  `db:"class_id"`
		Name    string `db:"name"`
		Order   int    `db:"stage_order"`
		Kind    string `db:"kind"`
		Status  string `db:"status"`
	}
	batchRow struct {
		ID              int64  `db:"id"`
		StageID         int64  `db:"stage_id"`
		Name            string `db:"name"`
		MaxParticipants int    `db:"max_participants"`
	}
	raceRow struct {
		ID      int64  `db:"id"`
		BatchID int64  `db:"batch_id"`
		Name    string `db:"name"`
		Order   int    `db:"race_order"`
		Type    string `db:"race_type"`
		Status  string `db:"status"`
	}
)

var _ api.ClassRepository = (*repo)(nil)

func NewClassRepository(conn bob.Executor) api.ClassRepository {
	return &repo{
		conn: conn,
	}
}

// Create inserts the class, its stages, batches and races.
// The caller should run this inside a transaction.
func (r *repo) Create(ctx context.Context, class *model.Class) (err error) {
	exec := r.getExecutor(ctx)
	if class.ID, err = insertRow(ctx, exec, dbinfo.Classes,
		class.CompetitionID, class.Name,
		class.NumQualifyingBatches, class.MaxParticipants); err != nil {
		return err
	}
	for _, stage := range class.Stages {
		stage.ClassID = class.ID
		if stage.Status == "" {
			stage.Status = model.StageScheduled
		}
		if stage.ID, err = insertRow(ctx, exec, dbinfo.Stages,
			stage.ClassID, stage.Name, stage.Order,
			string(stage.Kind), string(stage.Status)); err != nil {
			return err
		}
		for _, batch := range stage.Batches {
			batch.StageID = stage.ID
			if batch.ID, err = insertRow(ctx, exec, dbinfo.Batches,
				batch.StageID, batch.Name, batch.MaxParticipants); err != nil {
				return err
			}
			for _, race := range batch.Races {
				race.BatchID = batch.ID
				if race.Status == "" {
					race.Status = model.RaceScheduled
				}
				if race.ID, err = insertRow(ctx, exec, dbinfo.Races,
					race.BatchID, race.Name, race.Order,
					string(race.Type), string(race.Status)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *repo) LoadByID(ctx context.Context, id int64) (*model.Class, error) {
	exec := r.getExecutor(ctx)
	c, err := bob.One(ctx, exec,
		psql.Select(
			dbinfo.Classes.Select(),
			sm.From(dbinfo.Classes.Name),
			sm.Where(dbinfo.EQ("id", id))),
		scan.StructMapper[classRow]())
	if err != nil {
		return nil, noRows(err)
	}

	stages, err := bob.All(ctx, exec,
		psql.Select(
			dbinfo.Stages.Select(),
			sm.From(dbinfo.Stages.Name),
			sm.Where(dbinfo.EQ("class_id", id)),
			sm.OrderBy("stage_order").Asc()),
		scan.StructMapper[stageRow]())
	if err != nil {
		return nil, err
	}
	stageIDs := psql.Select(
		sm.Columns("id"),
		sm.From(dbinfo.Stages.Name),
		sm.Where(dbinfo.EQ("class_id", id)))
	batches, err := bob.All(ctx, exec,
		psql.Select(
			dbinfo.Batches.Select(),
			sm.From(dbinfo.Batches.Name),
			sm.Where(psql.Quote("stage_id").In(stageIDs)),
			sm.OrderBy("id").Asc()),
		scan.StructMapper[batchRow]())
	if err != nil {
		return nil, err
	}
	races, err := r.loadRaces(ctx, exec, lo.Map(batches,
		func(b batchRow, _ int) int64 { return b.ID }))
	if err != nil {
		return nil, err
	}

	ret := c.toModel()
	racesByBatch := lo.GroupBy(races, func(item raceRow) int64 { return item.BatchID })
	batchesByStage := lo.GroupBy(batches, func(item batchRow) int64 { return item.StageID })
	for _, s := range stages {
		stage := s.toModel()
		for _, b := range batchesByStage[s.ID] {
			stage.Batches = append(stage.Batches, b.toModel(racesByBatch[b.ID]))
		}
		ret.Stages = append(ret.Stages, stage)
	}
	return ret, nil
}

func (r *repo) LoadByCompetitionID(ctx context.Context, competitionID int64) (
	[]*model.Class, error,
) {
	ids, err := bob.All(ctx, r.getExecutor(ctx),
		psql.Select(
			sm.Columns("id"),
			sm.From(dbinfo.Classes.Name),
			sm.Where(dbinfo.EQ("competition_id", competitionID)),
			sm.OrderBy("id").Asc()),
		scan.SingleColumnMapper[int64])
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Class, 0, len(ids))
	for _, id := range ids {
		c, err := r.LoadByID(ctx, id)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func (r *repo) LoadBatch(ctx context.Context, batchID int64) (*model.Batch, error) {
	exec := r.getExecutor(ctx)
	b, err := bob.One(ctx, exec,
		psql.Select(
			dbinfo.Batches.Select(),
			sm.From(dbinfo.Batches.Name),
			sm.Where(dbinfo.EQ("id", batchID))),
		scan.StructMapper[batchRow]())
	if err != nil {
		return nil, noRows(err)
	}
	races, err := r.loadRaces(ctx, exec, []int64{batchID})
	if err != nil {
		return nil, err
	}
	return b.toModel(races), nil
}

// LoadBatchByRaceID locks the race row until the surrounding transaction ends,
// so result sets of one race are saved one after another.
func (r *repo) LoadBatchByRaceID(ctx context.Context, raceID int64) (*model.Batch, error) {
	batchID, err := bob.One(ctx, r.getExecutor(ctx),
		psql.Select(
			sm.Columns("batch_id"),
			sm.From(dbinfo.Races.Name),
			sm.Where(dbinfo.EQ("id", raceID)),
			sm.ForUpdate()),
		scan.SingleColumnMapper[int64])
	if err != nil {
		return nil, noRows(err)
	}
	return r.LoadBatch(ctx, batchID)
}

// UpdateStageStatus sets the status of a stage. Completing or resetting a
// stage also sets the status of its races.
func (r *repo) UpdateStageStatus(
	ctx context.Context,
	stageID int64,
	status model.StageStatus,
) (int, error) {
	exec := r.getExecutor(ctx)
	res, err := bob.Exec(ctx, exec, psql.Update(
		um.Table(dbinfo.Stages.Name),
		um.SetCol("status").To(psql.Arg(string(status))),
		um.Where(dbinfo.EQ("id", stageID)),
	))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	if err != nil || num == 0 {
		return int(num), err
	}
	if rs, ok := status.RaceStatus().Get(); ok {
		batchIDs := psql.Select(
			sm.Columns("id"),
			sm.From(dbinfo.Batches.Name),
			sm.Where(dbinfo.EQ("stage_id", stageID)))
		if _, err := bob.Exec(ctx, exec, psql.Update(
			um.Table(dbinfo.Races.Name),
			um.SetCol("status").To(psql.Arg(string(rs))),
			um.Where(psql.Quote("batch_id").In(batchIDs)),
		)); err != nil {
			return 0, err
		}
	}
	return int(num), nil
}

// deletes an entry from the database, returns number of rows deleted.
func (r *repo) DeleteByID(ctx context.Context, id int64) (int, error) {
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Delete(
		dm.From(dbinfo.Classes.Name),
		dm.Where(dbinfo.EQ("id", id)),
	))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	return int(num), err
}

func (r *repo) loadRaces(ctx context.Context, exec bob.Executor, batchIDs []int64) (
	[]raceRow, error,
) {
	if len(batchIDs) == 0 {
		return nil, nil
	}
	return bob.All(ctx, exec,
		psql.Select(
			dbinfo.Races.Select(),
			sm.From(dbinfo.Races.Name),
			sm.Where(psql.Quote("batch_id").In(psql.Arg(lo.ToAnySlice(batchIDs)...))),
			sm.OrderBy("batch_id").Asc(),
			sm.OrderBy("race_order").Asc()),
		scan.StructMapper[raceRow]())
}

// inserts vals into the writable columns of t and returns the generated key
func insertRow(ctx context.Context, exec bob.Executor, t dbinfo.Table, vals ...any) (
	int64, error,
) {
	q := psql.Insert(
		im.Into(t.Name, t.Writable()...),
		im.Values(lo.Map(vals, func(v any, _ int) bob.Expression {
			return psql.Arg(v)
		})...),
		im.Returning(t.Key),
	)
	return bob.One(ctx, exec, q, scan.SingleColumnMapper[int64])
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return api.ErrNoRows
	}
	return err
}

func (c classRow) toModel() *model.Class {
	return &model.Class{
		ID:                   c.ID,
		CompetitionID:        c.CompetitionID,
		Name:                 c.Name,
		NumQualifyingBatches: c.NumBatches,
		MaxParticipants:      c.MaxParticipants,
	}
}

func (s stageRow) toModel() *model.Stage {
	return &model.Stage{
		ID:      s.ID,
		ClassID: s.ClassID,
		Name:    s.Name,
		Order:   s.Order,
		Kind:    model.StageKind(s.Kind),
		Status:  model.StageStatus(s.Status),
	}
}

func (b batchRow) toModel(races []raceRow) *model.Batch {
	ret := &model.Batch{
		ID:              b.ID,
		StageID:         b.StageID,
		Name:            b.Name,
		MaxParticipants: b.MaxParticipants,
	}
	for _, r := range races {
		ret.Races = append(ret.Races, &model.Race{
			ID:      r.ID,
			BatchID: r.BatchID,
			Name:    r.Name,
			Order:   r.Order,
			Type:    model.RaceType(r.Type),
			Status:  model.RaceStatus(r.Status),
		})
	}
	return ret
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	return bobCtx.Executor(ctx, r.conn)
}
