package storage_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/solar"
	"github.com/neexbeast/golden-hour/internal/storage"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}
func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}
func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

// ---- mock pgx.Row ----

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f *fakeRow) Scan(dest ...any) error { return f.scanFn(dest...) }

// spotRow fills dest in spotColumns order.
func spotRow(id uuid.UUID, name string, lat, lon float64, ts time.Time) *fakeRow {
	return &fakeRow{scanFn: func(dest ...any) error {
		return fillSpot(dest, []any{id, name, lat, lon, ts, ts})
	}}
}

func fillSpot(dest []any, row []any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *uuid.UUID:
			*v = row[i].(uuid.UUID)
		case *string:
			*v = row[i].(string)
		case *float64:
			*v = row[i].(float64)
		case *time.Time:
			*v = row[i].(time.Time)
		default:
			return fmt.Errorf("unexpected scan target %T", d)
		}
	}
	return nil
}

// ---- mock pgx.Rows ----

type fakeRows struct {
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
}

func (f *fakeRows) Next() bool                                   { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	return fillSpot(dest, f.rows[f.idx-1])
}

// ---- mock MigrationPool ----

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

// mockTx is a minimal pgx.Tx implementation for testing migrations.
type mockTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.execFn(ctx, sql, args...)
}
func (t *mockTx) Commit(ctx context.Context) error   { return t.commitFn(ctx) }
func (t *mockTx) Rollback(ctx context.Context) error { return t.rollbackFn(ctx) }

func (t *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

// ---- helpers ----

var sunset = solar.Coordinate{Latitude: 36.4618, Longitude: 25.3753}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSQLFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func okTx(record *[]string) *mockTx {
	return &mockTx{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			if record != nil {
				*record = append(*record, sql)
			}
			return pgconn.CommandTag{}, nil
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { return nil },
	}
}

// ---- UpsertSpot ----

func TestUpsertSpot_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	existing := uuid.New()

	var capturedSQL string
	var capturedArgs []any
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			capturedArgs = args
			return spotRow(existing, "Oia", sunset.Latitude, sunset.Longitude, now)
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	s, err := repo.UpsertSpot(context.Background(), "  Oia ", sunset)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, existing, s.ID, "row ID comes from the database, not the fresh UUID")
	assert.Equal(t, "Oia", s.Name)
	assert.Equal(t, sunset, s.Coordinate)

	assert.Contains(t, capturedSQL, "ON CONFLICT (name)")
	require.Len(t, capturedArgs, 4)
	assert.IsType(t, uuid.UUID{}, capturedArgs[0])
	assert.Equal(t, "Oia", capturedArgs[1])
	assert.Equal(t, sunset.Latitude, capturedArgs[2])
	assert.Equal(t, sunset.Longitude, capturedArgs[3])
}

func TestUpsertSpot_InvalidInput(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			t.Fatal("no query expected")
			return nil
		},
	}
	repo := storage.NewRepositoryWithQuerier(q)

	_, err := repo.UpsertSpot(context.Background(), "   ", sunset)
	require.ErrorIs(t, err, fault.ErrInvalidArgument)

	_, err = repo.UpsertSpot(context.Background(), strings.Repeat("x", 101), sunset)
	require.ErrorIs(t, err, fault.ErrInvalidArgument)

	_, err = repo.UpsertSpot(context.Background(), "Oia", solar.Coordinate{Latitude: 12, Longitude: 200})
	require.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestUpsertSpot_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(...any) error { return fmt.Errorf("db error") }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.UpsertSpot(context.Background(), "Oia", sunset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upserting spot")
}

// ---- GetSpot ----

func TestGetSpot_Found(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	id := uuid.New()

	var capturedArgs []any
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			capturedArgs = args
			return spotRow(id, "Oia", sunset.Latitude, sunset.Longitude, now)
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	s, err := repo.GetSpot(context.Background(), "Oia")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, []any{"Oia"}, capturedArgs)
}

func TestGetSpot_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	s, err := repo.GetSpot(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestGetSpot_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(...any) error { return fmt.Errorf("connection reset") }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.GetSpot(context.Background(), "Oia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying spot")
}

// ---- ListSpots ----

func TestListSpots_Found(t *testing.T) {
	now := time.Now().UTC()
	rows := &fakeRows{rows: [][]any{
		{uuid.New(), "Cabo da Roca", 38.7804, -9.4989, now, now},
		{uuid.New(), "Oia", sunset.Latitude, sunset.Longitude, now, now},
	}}

	var capturedSQL string
	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
			capturedSQL = sql
			return rows, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	spots, err := repo.ListSpots(context.Background())
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, "Cabo da Roca", spots[0].Name)
	assert.Equal(t, -9.4989, spots[0].Coordinate.Longitude)
	assert.Contains(t, capturedSQL, "ORDER BY name")
}

func TestListSpots_Empty(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	spots, err := repo.ListSpots(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, spots, "empty list, not nil, so it encodes as []")
	assert.Empty(t, spots)
}

func TestListSpots_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, fmt.Errorf("query failed")
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.ListSpots(context.Background())
	require.Error(t, err)
}

func TestListSpots_ScanError(t *testing.T) {
	now := time.Now()
	rows := &fakeRows{
		rows:    [][]any{{uuid.New(), "Oia", 1.0, 2.0, now, now}},
		scanErr: fmt.Errorf("scan failed"),
	}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.ListSpots(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning")
}

func TestListSpots_RowsErr(t *testing.T) {
	rows := &fakeRows{rowErr: fmt.Errorf("rows iteration error")}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.ListSpots(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterating")
}

// ---- DeleteSpot ----

func TestDeleteSpot(t *testing.T) {
	cases := map[string]struct {
		tag  string
		want bool
	}{
		"existing": {tag: "DELETE 1", want: true},
		"missing":  {tag: "DELETE 0", want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			q := &mockQuerier{
				execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
					assert.Equal(t, []any{"Oia"}, args)
					return pgconn.NewCommandTag(tc.tag), nil
				},
			}

			repo := storage.NewRepositoryWithQuerier(q)
			deleted, err := repo.DeleteSpot(context.Background(), "Oia")
			require.NoError(t, err)
			assert.Equal(t, tc.want, deleted)
		})
	}
}

func TestDeleteSpot_DBError(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, fmt.Errorf("db error")
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.DeleteSpot(context.Background(), "Oia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting spot")
}

// ---- NewRepository ----

func TestNewRepository_NotNil(t *testing.T) {
	repo := storage.NewRepository(nil)
	assert.NotNil(t, repo)
}

// ---- RunMigrations tests ----

func TestRunMigrations_MissingDir(t *testing.T) {
	err := storage.RunMigrations(context.Background(), nil, "/nonexistent/dir", discardLogger())
	require.Error(t, err)
}

func TestRunMigrations_EmptyDir(t *testing.T) {
	err := storage.RunMigrations(context.Background(), nil, t.TempDir(), discardLogger())
	require.NoError(t, err)
}

func TestRunMigrations_SpotsSchema(t *testing.T) {
	var executed []string
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return okTx(&executed), nil },
	}

	err := storage.RunMigrations(context.Background(), pool, "../../migrations", discardLogger())
	require.NoError(t, err)
	require.NotEmpty(t, executed)
	assert.Contains(t, executed[0], "CREATE TABLE IF NOT EXISTS spots")
}

func TestRunMigrations_BeginError(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "SELECT 1;")

	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return nil, fmt.Errorf("cannot begin") },
	}

	err := storage.RunMigrations(context.Background(), pool, dir, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing migration")
}

func TestRunMigrations_ExecErrorRollsBack(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "INVALID SQL;")

	var rolledBack bool
	tx := &mockTx{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, fmt.Errorf("syntax error")
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { rolledBack = true; return nil },
	}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil },
	}

	err := storage.RunMigrations(context.Background(), pool, dir, discardLogger())
	require.Error(t, err)
	assert.True(t, rolledBack)
}

func TestRunMigrations_CommitError(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "SELECT 1;")

	tx := okTx(nil)
	tx.commitFn = func(_ context.Context) error { return fmt.Errorf("commit failed") }
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil },
	}

	err := storage.RunMigrations(context.Background(), pool, dir, discardLogger())
	require.Error(t, err)
}

func TestRunMigrations_SortsFilesLexicographically(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "003_c.sql", "SELECT 3;")
	writeSQLFile(t, dir, "001_a.sql", "SELECT 1;")
	writeSQLFile(t, dir, "002_b.sql", "SELECT 2;")
	writeSQLFile(t, dir, "README.md", "not a migration")

	var order []string
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return okTx(&order), nil },
	}

	err := storage.RunMigrations(context.Background(), pool, dir, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;", "SELECT 3;"}, order)
}

// ---- Connect tests ----

func TestConnect_BadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := storage.Connect(ctx, "postgres://invalid-host-xyz:5432/db?sslmode=disable")
	require.Error(t, err)
}

func TestConnect_UnparsableURL(t *testing.T) {
	_, err := storage.Connect(context.Background(), "://nope")
	require.Error(t, err)
}
