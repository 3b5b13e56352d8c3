package repomanager

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewSQLRepositoryManager_ReturnsInterface(t *testing.T) {
	for _, d := range []dbx.Dialect{dbx.DialectPostgres, dbx.DialectSQLite} {
		m, err := NewSQLRepositoryManager(d, logging.Nop())
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", d, err)
		}
		var _ RepositoryManager = m
	}
}

func TestNewSQLRepositoryManager_UnknownDialect(t *testing.T) {
	if _, err := NewSQLRepositoryManager("oracle", logging.Nop()); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &SQLRepositoryManager{dialect: dbx.DialectPostgres}

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}

	var _ users.Repository = m.Users(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: dbx.DialectPostgres, logger: logging.Nop()}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: dbx.DialectSQLite, logger: logging.Nop()}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var buf bytes.Buffer
	m, err := NewSQLRepositoryManager(dbx.DialectSQLite, logging.New(&buf, "development", "info"))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "goose") || !strings.Contains(out, "module=migrations") {
		t.Fatalf("migration output not routed through logger: %q", out)
	}

	// idempotent
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("second RunMigrations error: %v", err)
	}

	u, err := m.Users(db).Create(context.Background(), "alice", "alice@x.com", "hash", nil)
	if err != nil {
		t.Fatalf("Create after migrations: %v", err)
	}
	if u.ID == "" {
		t.Fatal("empty id")
	}
}

func TestGooseLogger_Printf(t *testing.T) {
	var buf bytes.Buffer
	g := &gooseLogger{logger: logging.New(&buf, "production", "info")}

	g.Printf("goose: successfully migrated database to version: %d\n", 1)

	out := buf.String()
	if !strings.Contains(out, `"level":"INFO"`) {
		t.Fatalf("expected info record, got %q", out)
	}
	if !strings.Contains(out, `"msg":"goose: successfully migrated database to version: 1"`) {
		t.Fatalf("unexpected message: %q", out)
	}
}
