package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("object_id", "epoch_start", "claimed").
		From("hill_statuses").
		Where(Eq("object_id", "hill-1"), Eq("epoch_start", "1000")).
		OrderBy("epoch_start DESC").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT object_id, epoch_start, claimed FROM hill_statuses WHERE object_id = $1 AND epoch_start = $2 ORDER BY epoch_start DESC"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "hill-1" || args[1] != "1000" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RequiresTableAndColumns(t *testing.T) {
	if _, _, err := Select().From("hill_statuses").ToSQL(); err == nil {
		t.Fatalf("expected error without columns")
	}
	if _, _, err := Select("object_id").ToSQL(); err == nil {
		t.Fatalf("expected error without table")
	}
}

type pointRow struct {
	ObjectID  string `db:"object_id"`
	TeamATime uint64 `db:"team_a_time"`
	Scratch   string `db:"-"`
	Untagged  string
	hidden    string `db:"hidden"`
}

func TestInsertModel(t *testing.T) {
	row := pointRow{ObjectID: "p1", TeamATime: 400, Scratch: "x", Untagged: "y", hidden: "z"}
	query, args, err := InsertModel("control_point_statuses", &row, "ON CONFLICT (object_id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO control_point_statuses (object_id, team_a_time) VALUES ($1, $2) ON CONFLICT (object_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "p1" || args[1] != uint64(400) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_RejectsNonStruct(t *testing.T) {
	var nilRow *pointRow
	if _, _, err := InsertModel("t", nilRow, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("t", 42, ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	if _, _, err := InsertModel("t", struct{ A int }{A: 1}, ""); err == nil {
		t.Fatalf("expected error for model without db columns")
	}
}
