package introspect

import (
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-dal/pkg/dialect"
	"github.com/txn2/mcp-dal/pkg/executor"
	"github.com/txn2/mcp-dal/pkg/pool"
)

func newTarget(t *testing.T, provider string) (*executor.Target, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	p := pool.New(provider, db, slog.Default())
	target, err := executor.NewTarget("test", provider, p, nil, executor.Guardrails{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = target.Close() })
	return target, mock
}

func TestListTableNames(t *testing.T) {
	target, mock := newTarget(t, "trino")

	mock.ExpectQuery("SELECT table_name FROM hive.information_schema.tables WHERE table_schema = ? ORDER BY table_name").
		WithArgs("sales").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("customers"))

	ins := New(executor.New(nil))
	names, err := ins.ListTableNames(context.Background(), target, "tenant-a", dialect.Namespace{Level1: "hive", Level2: "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTableNames_PostgresPlaceholders(t *testing.T) {
	target, mock := newTarget(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	mock.ExpectCommit()

	ins := New(executor.New(nil))
	names, err := ins.ListTableNames(context.Background(), target, "tenant-a", dialect.Namespace{Level2: "public"})
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTableNames_RequiresSchema(t *testing.T) {
	target, _ := newTarget(t, "postgres")
	_, err := New(executor.New(nil)).ListTableNames(context.Background(), target, "t", dialect.Namespace{})
	assert.Error(t, err)
}

func TestGetTableDef(t *testing.T) {
	target, mock := newTarget(t, "trino")

	mock.ExpectQuery("SELECT column_name, data_type, is_nullable FROM hive.information_schema.columns WHERE table_name = ? AND table_schema = ? ORDER BY ordinal_position").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "bigint", "NO").
			AddRow("name", "varchar(64)", "YES").
			AddRow("active", "tinyint(1)", "NO"))

	ins := New(executor.New(nil))
	def, err := ins.GetTableDef(context.Background(), target, "tenant-a", dialect.Namespace{Level1: "hive", Level2: "sales", Table: "users"})
	require.NoError(t, err)

	require.Len(t, def.Columns, 3)
	assert.Equal(t, ColumnDef{Name: "id", Type: "bigint", NativeType: "bigint", Nullable: false}, def.Columns[0])
	assert.Equal(t, ColumnDef{Name: "name", Type: "string", NativeType: "varchar(64)", Nullable: true}, def.Columns[1])
	assert.Equal(t, ColumnDef{Name: "active", Type: "boolean", NativeType: "tinyint(1)", Nullable: false}, def.Columns[2])
}

func TestGetTableDef_NotFound(t *testing.T) {
	target, mock := newTarget(t, "trino")

	mock.ExpectQuery("SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_name = ? AND table_schema = ? ORDER BY ordinal_position").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}))

	_, err := New(executor.New(nil)).GetTableDef(context.Background(), target, "t", dialect.Namespace{Level2: "sales", Table: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetSampleRows(t *testing.T) {
	target, mock := newTarget(t, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM `sales`.`orders` LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	res, err := New(executor.New(nil)).GetSampleRows(context.Background(), target, "tenant-a", dialect.Namespace{Level2: "sales", Table: "orders"}, 5)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
