package analyze_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdgo/fwd-nagaoka/internal/analyze"
	"github.com/fwdgo/fwd-nagaoka/internal/models"
	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

func TestAnalyzeAll(t *testing.T) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	retrievedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	good := &models.RawStatement{
		Text:        "03月05日 09:15 長岡市 中央一丁目 ○○に建物火災のため消防車が出動しました。",
		RetrievedAt: retrievedAt,
		Zone:        models.ZoneCurrent,
		NotifyState: models.NotifyPending,
	}
	malformed := &models.RawStatement{
		Text:        "03月05日 これは解析できない行です。",
		RetrievedAt: retrievedAt,
		Zone:        models.ZoneCurrent,
		NotifyState: models.NotifyPending,
	}
	alsoGood := &models.RawStatement{
		Text:        "03月04日 23:50 長岡市 旭町二丁目 △△の建物火災は00:10鎮火しました。",
		RetrievedAt: retrievedAt,
		Zone:        models.ZonePast,
		NotifyState: models.NotifyPending,
	}
	for _, st := range []*models.RawStatement{good, malformed, alsoGood} {
		require.NoError(t, db.AddStatement(ctx, st))
	}

	analyzer := analyze.NewAnalyzer(db, "長岡市")
	analyzed, failed, err := analyzer.AnalyzeAll(ctx)

	// One malformed record must not abort its siblings.
	require.NoError(t, err)
	assert.Equal(t, 2, analyzed)
	assert.Equal(t, 1, failed)

	detail, err := db.DetailByStatementID(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryFire, detail.Category)
	assert.Equal(t, models.StatusOpened, detail.Status)

	detail, err = db.DetailByStatementID(ctx, alsoGood.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExtinguished, detail.Status)
	require.NotNil(t, detail.ClosedAt)
	assert.True(t, detail.ClosedAt.Equal(time.Date(2024, 3, 5, 0, 10, 0, 0, time.Local)))

	// The malformed row stays unanalyzed and is picked up again next pass.
	unanalyzed, err := db.ListUnanalyzed(ctx)
	require.NoError(t, err)
	require.Len(t, unanalyzed, 1)
	assert.Equal(t, malformed.ID, unanalyzed[0].ID)

	// A second pass finds nothing new to analyze except the bad row.
	analyzed, failed, err = analyzer.AnalyzeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, analyzed)
	assert.Equal(t, 1, failed)
}
