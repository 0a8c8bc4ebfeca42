package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
		create table a(id text);
		insert into a values ('x;y');
		insert into a values ('z')`)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements: %#v", len(stmts), stmts)
	}
	if got := stmts[1]; !strings.Contains(got, "'x;y'") {
		t.Fatalf("literal semicolon split: %q", got)
	}
}

func TestCollectSQLOrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_add.up.sql", "0001_init.up.sql", "0001_init.down.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := collectSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 || files[0].base != "0001_init.up.sql" || files[1].base != "0002_add.up.sql" {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "gone"), ".sql")
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if files != nil {
		t.Fatalf("expected no files, got %#v", files)
	}
}
