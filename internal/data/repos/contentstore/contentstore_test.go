package contentstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/data/repos/testutil"
	"github.com/northlane/contentpool/internal/platform/dbctx"
)

func TestPutBatch_DedupesByHash(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := New(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: t.Context(), Tx: tx}

	result, err := repo.PutBatch(dbc, "cat-X",
		[][]byte{[]byte(`{"a":1}`), []byte(`{"a":1}`), []byte(`{"b":2}`)},
		[]string{"hash-1", "hash-1", "hash-2"},
	)
	require.NoError(t, err)
	require.Equal(t, 2, result.Stored)
	require.Equal(t, 1, result.SkippedDuplicateByHash)
}

func TestQueryByCategory_OnlyReturnsItemsAfterWatermark(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := New(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: t.Context(), Tx: tx}

	_, err := repo.PutBatch(dbc, "cat-Y", [][]byte{[]byte(`{}`), []byte(`{}`)}, []string{"h1", "h2"})
	require.NoError(t, err)

	all, err := repo.QueryByCategory(dbc, "cat-Y", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	after, err := repo.QueryByCategory(dbc, "cat-Y", all[0].ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, all[1].ID, after[0].ID)
}
