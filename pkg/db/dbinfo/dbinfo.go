// Package dbinfo describes the tables created by the migrations in pkg/db/migrate.
package dbinfo

import (
	"slices"

	"github.com/samber/lo"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Table struct {
	Name string
	// Key is the generated primary key. Empty for tables with a natural key.
	Key  string
	Cols []string
}

// Select selects all columns of the table.
func (t Table) Select() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(lo.ToAnySlice(t.Cols)...)
}

// Writable returns the columns an insert has to provide.
func (t Table) Writable() []string {
	return slices.DeleteFunc(slices.Clone(t.Cols), func(c string) bool {
		return c == t.Key
	})
}

// EQ compares a column with an argument.
func EQ(col string, v any) bob.Expression {
	return psql.Quote(col).EQ(psql.Arg(v))
}

var (
	Competitions = Table{
		Name: "competition",
		Key:  "id",
		Cols: []string{
			"id", "external_id", "name", "short_code", "start_date", "end_date",
			"location", "rules", "schedule",
		},
	}
	Classes = Table{
		Name: "class",
		Key:  "id",
		Cols: []string{"id", "competition_id", "name", "num_batches", "max_participants"},
	}
	Stages = Table{
		Name: "stage",
		Key:  "id",
		Cols: []string{"id", "class_id", "name", "stage_order", "kind", "status"},
	}
	Batches = Table{
		Name: "batch",
		Key:  "id",
		Cols: []string{"id", "stage_id", "name", "max_participants"},
	}
	Races = Table{
		Name: "race",
		Key:  "id",
		Cols: []string{"id", "batch_id", "name", "race_order", "race_type", "status"},
	}
	Participants = Table{
		Name: "participant",
		Key:  "id",
		Cols: []string{"id", "batch_id", "number", "name", "nickname", "club"},
	}
	RaceResults = Table{
		Name: "race_result",
		Cols: []string{
			"race_id", "participant_id", "position", "start_position",
			"finish_position", "penalty_points",
		},
	}
)

// AllTables lists the tables in an order that is safe for deletion.
func AllTables() []Table {
	return []Table{
		RaceResults, Participants, Races, Batches, Stages, Classes, Competitions,
	}
}
