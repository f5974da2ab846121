package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubConnUpsertDeleteAndSelect(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	upsert := "INSERT INTO projects(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload"
	for _, args := range [][2]string{{"P1", "v1"}, {"P1", "v2"}, {"P2", "v1"}} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: args[0]}, {Value: args[1]}}); err != nil {
			t.Fatalf("upsert %v: %v", args, err)
		}
	}
	if len(conn.Tables["projects"]) != 2 {
		t.Fatalf("expected upsert to keep one row per name, got %v", conn.Tables["projects"])
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM projects WHERE name = $1", []driver.NamedValue{{Value: "P2"}}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT name, payload FROM projects", nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if dest[0] != "P1" || dest[1] != "v2" {
		t.Fatalf("unexpected row %v", dest)
	}
	if err := rows.Next(dest); err == nil {
		t.Fatalf("expected a single row after delete")
	}

	for _, bad := range []string{"UPDATE projects SET x = 1", "DELETE projects"} {
		if _, err := conn.ExecContext(ctx, bad, nil); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if _, err := conn.QueryContext(ctx, "VACUUM", nil); err == nil {
		t.Fatalf("expected non-select query to be rejected")
	}
}
