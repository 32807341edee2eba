package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/data/repos/testutil"
	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/platform/dbctx"
)

func TestGetLatestWatermark_EmptyCategoryReturnsEmptyString(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := New(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: t.Context(), Tx: tx}

	watermark, err := repo.GetLatestWatermark(dbc, "cat-empty")
	require.NoError(t, err)
	require.Empty(t, watermark)
}

func TestPutBatchAndWatermarkIsMonotonic(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := New(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: t.Context(), Tx: tx}

	refs, err := domain.EncodeRefs([]domain.ItemRef{{ID: "i01", Hash: "h1"}})
	require.NoError(t, err)

	first := domain.Set{ID: uuid.New(), CategoryID: "cat-X", Refs: refs, Watermark: "i05"}
	require.NoError(t, repo.PutBatch(dbc, []domain.Set{first}))
	wm, err := repo.GetLatestWatermark(dbc, "cat-X")
	require.NoError(t, err)
	require.Equal(t, "i05", wm)

	second := domain.Set{ID: uuid.New(), CategoryID: "cat-X", Refs: refs, Watermark: "i10"}
	require.NoError(t, repo.PutBatch(dbc, []domain.Set{second}))
	wm, err = repo.GetLatestWatermark(dbc, "cat-X")
	require.NoError(t, err)
	require.Equal(t, "i10", wm)
}

func TestGet_NotFound(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := New(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: t.Context(), Tx: tx}

	_, err := repo.Get(dbc, uuid.New())
	require.Error(t, err)
}
