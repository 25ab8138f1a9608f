package participant

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
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
	participantRow struct {
		ID       int64  `db:"id"`
		BatchID  int64  `db:"batch_id"`
		Number   string `db:"number"`
		Name     string `db:"name"`
		Nickname string `db:"nickname"`
		Club     string `db:"club"`
	}
)

var _ api.ParticipantRepository = (*repo)(nil)

var table = dbinfo.Participants

func NewParticipantRepository(conn bob.Executor) api.ParticipantRepository {
	return &repo{
		conn: conn,
	}
}

func (r *repo) Create(ctx context.Context, p *model.Participant) error {
	q := psql.Insert(
		im.Into(table.Name, table.Writable()...),
		im.Values(
			psql.Arg(p.BatchID),
			psql.Arg(p.Number),
			psql.Arg(p.Name),
			psql.Arg(p.Nickname),
			psql.Arg(p.Club),
		),
		im.Returning(table.Key),
	)
	id, err := bob.One(ctx, r.getExecutor(ctx), q, scan.SingleColumnMapper[int64])
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// LoadByBatchID returns the participants of a batch in registration order.
//
//nolint:whitespace // editor/linter issue
func (r *repo) LoadByBatchID(ctx context.Context, batchID int64) (
	[]model.Participant, error,
) {
	res, err := bob.All(ctx, r.getExecutor(ctx),
		psql.Select(
			table.Select(),
			sm.From(table.Name),
			sm.Where(dbinfo.EQ("batch_id", batchID)),
			sm.OrderBy("id").Asc()),
		scan.StructMapper[participantRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]model.Participant, len(res))
	for i := range res {
		ret[i] = model.Participant(res[i])
	}
	return ret, nil
}

func (r *repo) CountByBatchID(ctx context.Context, batchID int64) (int, error) {
	num, err := bob.One(ctx, r.getExecutor(ctx),
		psql.Select(
			sm.Columns("count(*)"),
			sm.From(table.Name),
			sm.Where(dbinfo.EQ("batch_id", batchID))),
		scan.SingleColumnMapper[int64])
	return int(num), err
}

// deletes an entry from the database, returns number of rows deleted.
func (r *repo) DeleteByID(ctx context.Context, id int64) (int, error) {
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Delete(
		dm.From(table.Name),
		dm.Where(dbinfo.EQ("id", id)),
	))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	return int(num), err
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	return bobCtx.Executor(ctx, r.conn)
}
