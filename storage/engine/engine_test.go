package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xmysql-storage/conf"
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

func testConfig(t *testing.T) *conf.StorageConfig {
	t.Helper()
	cfg := conf.Default()
	cfg.DataDir = t.TempDir()
	cfg.PoolSize = 32
	cfg.LogLevel = "error"
	return cfg
}

func TestEngineLifecycle(t *testing.T) {
	cfg := testConfig(t)

	e, err := Open(cfg)
	require.NoError(t, err)

	idx, err := CreateIndex[uint64](e, "users_pk", basic.Uint64Codec{}, basic.CompareUint64)
	require.NoError(t, err)

	txn := basic.NewTransaction()
	for k := uint64(1); k <= 50; k++ {
		ok, err := idx.Insert(k, common.NewRID(common.PageID(k), int32(k)), txn)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, e.Close())

	t.Run("重开后索引持久", func(t *testing.T) {
		e2, err := Open(cfg)
		require.NoError(t, err)
		defer e2.Close()

		idx2, err := OpenIndex[uint64](e2, "users_pk", basic.Uint64Codec{}, basic.CompareUint64)
		require.NoError(t, err)

		got, ok, err := idx2.GetValue(25, txn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, common.NewRID(25, 25), got)

		it, err := idx2.Iterator()
		require.NoError(t, err)
		count := 0
		for !it.IsEnd() {
			count++
			require.NoError(t, it.Next())
		}
		it.Close()
		assert.Equal(t, 50, count)
	})

	t.Run("打开不存在的索引报错", func(t *testing.T) {
		e2, err := Open(cfg)
		require.NoError(t, err)
		defer e2.Close()

		_, err = OpenIndex[uint64](e2, "missing_idx", basic.Uint64Codec{}, basic.CompareUint64)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index not found")
	})

	t.Run("重名索引拒绝", func(t *testing.T) {
		e2, err := Open(cfg)
		require.NoError(t, err)
		defer e2.Close()

		_, err = CreateIndex[uint64](e2, "users_pk", basic.Uint64Codec{}, basic.CompareUint64)
		require.Error(t, err)
	})
}

func TestEngineMultipleIndexes(t *testing.T) {
	cfg := testConfig(t)
	e, err := Open(cfg)
	require.NoError(t, err)
	defer e.Close()

	txn := basic.NewTransaction()

	users, err := CreateIndex[uint32](e, "users_pk", basic.Uint32Codec{}, basic.CompareUint32)
	require.NoError(t, err)
	orders, err := CreateIndex[uint32](e, "orders_pk", basic.Uint32Codec{}, basic.CompareUint32)
	require.NoError(t, err)

	for k := uint32(1); k <= 20; k++ {
		_, err := users.Insert(k, common.NewRID(1, int32(k)), txn)
		require.NoError(t, err)
		_, err = orders.Insert(k*100, common.NewRID(2, int32(k)), txn)
		require.NoError(t, err)
	}

	got, ok, err := users.GetValue(10, txn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.NewRID(1, 10), got)

	got, ok, err = orders.GetValue(1000, txn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.NewRID(2, 10), got)

	_, ok, err = users.GetValue(1000, txn)
	require.NoError(t, err)
	assert.False(t, ok, "indexes must not bleed into each other")

	assert.Equal(t, 0, e.Pool().PinnedCount())
}

func TestEngineBackupRestore(t *testing.T) {
	cfg := testConfig(t)
	e, err := Open(cfg)
	require.NoError(t, err)

	idx, err := CreateIndex[uint32](e, "backup_idx", basic.Uint32Codec{}, basic.CompareUint32)
	require.NoError(t, err)
	txn := basic.NewTransaction()
	for k := uint32(1); k <= 100; k++ {
		_, err := idx.Insert(k, common.NewRID(common.PageID(k), 0), txn)
		require.NoError(t, err)
	}

	backupPath := filepath.Join(t.TempDir(), "snapshot.snappy")
	require.NoError(t, e.Backup(backupPath))
	require.NoError(t, e.Close())

	// Restore into a fresh data dir and read it back.
	restoredCfg := conf.Default()
	restoredCfg.DataDir = t.TempDir()
	restoredCfg.LogLevel = "error"
	require.NoError(t, RestoreBackup(backupPath, restoredCfg.DataFilePath()))

	e2, err := Open(restoredCfg)
	require.NoError(t, err)
	defer e2.Close()

	idx2, err := OpenIndex[uint32](e2, "backup_idx", basic.Uint32Codec{}, basic.CompareUint32)
	require.NoError(t, err)
	got, ok, err := idx2.GetValue(42, txn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.NewRID(42, 0), got)
}
