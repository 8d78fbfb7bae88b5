package gormstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CryptoTracker/internal/recorder/recordertest"
)

func openSQLite(t *testing.T, maxPoints int) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "prices.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	st, err := Open(context.Background(), sqlite.Open(dsn), maxPoints, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore(t *testing.T) {
	recordertest.Run(t, func(t *testing.T, maxPoints int) recordertest.Store {
		return openSQLite(t, maxPoints)
	})
}

func TestSplitDSN(t *testing.T) {
	name, admin, err := splitDSN("postgres://tracker:secret@db:5432/crypto?sslmode=disable")
	require.NoError(t, err)
	require.Equal(t, "crypto", name)
	require.Equal(t, "postgres://tracker:secret@db:5432/postgres?sslmode=disable", admin)

	_, _, err = splitDSN("host=db dbname=crypto")
	require.Error(t, err)

	_, _, err = splitDSN("postgres://db:5432/")
	require.Error(t, err)
}
