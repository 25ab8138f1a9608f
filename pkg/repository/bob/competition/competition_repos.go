package competition

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"
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
	competitionRow struct {
		ID         int64               `db:"id"`
		ExternalID uuid.UUID           `db:"external_id"`
		Name       string              `db:"name"`
		ShortCode  string              `db:"short_code"`
		StartDate  null.Val[time.Time] `db:"start_date"`
		EndDate    null.Val[time.Time] `db:"end_date"`
		Location   string              `db:"location"`
		Rules      string              `db:"rules"`
		Schedule   string              `db:"schedule"`
	}
)

var _ api.CompetitionRepository = (*repo)(nil)

var table = dbinfo.Competitions

func NewCompetitionRepository(conn bob.Executor) api.CompetitionRepository {
	return &repo{
		conn: conn,
	}
}

func (r *repo) Create(ctx context.Context, c *model.Competition) error {
	if c.ExternalID == uuid.Nil {
		var err error
		if c.ExternalID, err = uuid.NewV4(); err != nil {
			return err
		}
	}
	q := psql.Insert(
		im.Into(table.Name, table.Writable()...),
		im.Values(
			psql.Arg(c.ExternalID),
			psql.Arg(c.Name),
			psql.Arg(c.ShortCode),
			psql.Arg(optionalDate(c.StartDate)),
			psql.Arg(optionalDate(c.EndDate)),
			psql.Arg(c.Location),
			psql.Arg(c.Rules),
			psql.Arg(c.Schedule),
		),
		im.Returning(table.Key),
	)
	id, err := bob.One(ctx, r.getExecutor(ctx), q, scan.SingleColumnMapper[int64])
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

//nolint:whitespace // editor/linter issue
func (r *repo) LoadByID(ctx context.Context, id int64) (
	*model.Competition, error,
) {
	return r.loadOne(ctx, dbinfo.EQ("id", id))
}

//nolint:whitespace // editor/linter issue
func (r *repo) LoadByShortCode(ctx context.Context, code string) (
	*model.Competition, error,
) {
	return r.loadOne(ctx, dbinfo.EQ("short_code", code))
}

func (r *repo) LoadAll(ctx context.Context) ([]*model.Competition, error) {
	q := psql.Select(
		table.Select(),
		sm.From(table.Name),
		sm.OrderBy("start_date").Desc(),
		sm.OrderBy("id").Asc(),
	)
	res, err := bob.All(ctx, r.getExecutor(ctx), q, scan.StructMapper[competitionRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Competition, 0, len(res))
	for i := range res {
		ret = append(ret, res[i].toModel())
	}
	return ret, nil
}

// deletes an entry from the database, returns number of rows deleted.
// Classes and everything below them are removed by the foreign keys.
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

//nolint:whitespace // editor/linter issue
func (r *repo) loadOne(ctx context.Context, where bob.Expression) (
	*model.Competition, error,
) {
	q := psql.Select(table.Select(), sm.From(table.Name), sm.Where(where))
	res, err := bob.One(ctx, r.getExecutor(ctx), q, scan.StructMapper[competitionRow]())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, api.ErrNoRows
		}
		return nil, err
	}
	return res.toModel(), nil
}

func (c competitionRow) toModel() *model.Competition {
	return &model.Competition{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		ShortCode:  c.ShortCode,
		StartDate:  c.StartDate.GetOrZero(),
		EndDate:    c.EndDate.GetOrZero(),
		Location:   c.Location,
		Rules:      c.Rules,
		Schedule:   c.Schedule,
	}
}

func optionalDate(t time.Time) null.Val[time.Time] {
	return null.FromCond(t, !t.IsZero())
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	return bobCtx.Executor(ctx, r.conn)
}
