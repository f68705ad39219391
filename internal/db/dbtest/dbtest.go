// Package dbtest abre bancos SQLite em memória já migrados para testes.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"chatrelay/internal/config"
	"chatrelay/internal/db"
)

func New(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	bunDB, err := db.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = bunDB.Close() })

	require.NoError(t, db.NewMigrator(bunDB).AutoMigrate(context.Background()))
	return bunDB
}
