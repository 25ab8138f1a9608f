package result

import (
	"context"

	"github.com/aarondl/opt/null"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
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
	// legacy results only fill position, start/finish results leave it null
	resultRow struct {
		RaceID         int64           `db:"race_id"`
		ParticipantID  int64           `db:"participant_id"`
		Position       null.Val[int32] `db:"position"`
		StartPosition  null.Val[int32] `db:"start_position"`
		FinishPosition null.Val[int32] `db:"finish_position"`
		Penalty        int32           `db:"penalty_points"`
	}
)

var _ api.ResultRepository = (*repo)(nil)

var table = dbinfo.RaceResults

func NewResultRepository(conn bob.Executor) api.ResultRepository {
	return &repo{
		conn: conn,
	}
}

//nolint:whitespace // editor/linter issue
func (r *repo) LoadByRaceID(ctx context.Context, raceID int64) (
	[]model.RaceResult, error,
) {
	res, err := bob.All(ctx, r.getExecutor(ctx),
		psql.Select(
			table.Select(),
			sm.From(table.Name),
			sm.Where(dbinfo.EQ("race_id", raceID)),
			sm.OrderBy("participant_id").Asc()),
		scan.StructMapper[resultRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]model.RaceResult, len(res))
	for i := range res {
		ret[i] = res[i].toModel()
	}
	return ret, nil
}

func (r *repo) Upsert(ctx context.Context, result model.RaceResult) error {
	row := fromModel(result)
	q := psql.Insert(
		im.Into(table.Name, table.Writable()...),
		im.Values(
			psql.Arg(row.RaceID),
			psql.Arg(row.ParticipantID),
			psql.Arg(row.Position),
			psql.Arg(row.StartPosition),
			psql.Arg(row.FinishPosition),
			psql.Arg(row.Penalty),
		),
		im.OnConflict("race_id", "participant_id").DoUpdate(
			im.SetCol("position").To(psql.Arg(row.Position)),
			im.SetCol("start_position").To(psql.Arg(row.StartPosition)),
			im.SetCol("finish_position").To(psql.Arg(row.FinishPosition)),
			im.SetCol("penalty_points").To(psql.Arg(row.Penalty)),
		),
	)
	if _, err := bob.Exec(ctx, r.getExecutor(ctx), q); err != nil {
		if isForeignKeyViolation(err) {
			return api.ErrNoRows
		}
		return err
	}
	return nil
}

func fromModel(result model.RaceResult) resultRow {
	ret := resultRow{
		RaceID:        result.RaceID,
		ParticipantID: result.ParticipantID,
		Penalty:       int32(result.Penalty),
	}
	switch v := result.Placing.(type) {
	case model.SimplePosition:
		ret.Position = null.From(int32(v.Position))
	case model.StartFinish:
		ret.StartPosition = null.From(int32(v.Start))
		ret.FinishPosition = null.From(int32(v.Finish))
	default:
		ret.StartPosition = null.From(int32(0))
		ret.FinishPosition = null.From(int32(0))
	}
	return ret
}

func (r resultRow) toModel() model.RaceResult {
	return model.ResultRecord{
		RaceID:         r.RaceID,
		ParticipantID:  r.ParticipantID,
		Position:       toIntPtr(r.Position),
		StartPosition:  toIntPtr(r.StartPosition),
		FinishPosition: toIntPtr(r.FinishPosition),
		Penalty:        int(r.Penalty),
	}.ToResult()
}

func toIntPtr(v null.Val[int32]) *int {
	if x, ok := v.Get(); ok {
		ret := int(x)
		return &ret
	}
	return nil
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	return bobCtx.Executor(ctx, r.conn)
}
