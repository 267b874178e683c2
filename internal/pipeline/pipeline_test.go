package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fwdgo/fwd-nagaoka/internal/analyze"
	"github.com/fwdgo/fwd-nagaoka/internal/bulletin"
	"github.com/fwdgo/fwd-nagaoka/internal/ingest"
	"github.com/fwdgo/fwd-nagaoka/internal/models"
	"github.com/fwdgo/fwd-nagaoka/internal/notify"
	"github.com/fwdgo/fwd-nagaoka/internal/observability"
	"github.com/fwdgo/fwd-nagaoka/internal/pipeline"
	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testPage = `長岡市消防本部 災害情報
↓現在発生している災害↓
<span>03月05日 09:15 長岡市 中央一丁目 ○○に建物火災のため消防車が出動しました。</span>
↑現在発生している災害↑
（中略）
↓過去の災害経過情報↓
<span>03月04日 23:50 長岡市 旭町二丁目 △△の建物火災は00:10鎮火しました。</span>
↑過去の災害経過情報↑
お問い合わせ先`

type fakeFetcher struct {
	page string
}

func (f *fakeFetcher) Fetch(_ context.Context) (string, error) {
	return f.page, nil
}

type fakeSender struct {
	messages []string
}

func (f *fakeSender) Post(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type env struct {
	db       *repository.SQLiteDB
	sender   *fakeSender
	pipeline *pipeline.Pipeline
}

func setup(t *testing.T, page string) *env {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sender := &fakeSender{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local))

	p := pipeline.New(
		&fakeFetcher{page: page},
		ingest.NewIngestor(db),
		analyze.NewAnalyzer(db, "長岡市"),
		notify.NewDispatcher(db, notify.NewRenderer(), sender),
		clock,
		observability.NewMetricsForTesting(),
	)

	return &env{db: db, sender: sender, pipeline: p}
}

func TestPipeline_Run(t *testing.T) {
	e := setup(t, testPage)
	ctx := context.Background()

	require.NoError(t, e.pipeline.Run(ctx))

	count, err := e.db.CountStatements(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Everything analyzed and notified in the same pass.
	unanalyzed, err := e.db.ListUnanalyzed(ctx)
	require.NoError(t, err)
	assert.Empty(t, unanalyzed)
	assert.Len(t, e.sender.messages, 2)

	fire := models.CategoryFire
	current := models.ZoneCurrent
	records, err := e.db.ListDisasters(ctx, repository.Filter{Zone: &current, Category: &fire})
	require.NoError(t, err)
	require.Len(t, records, 1)

	detail := records[0].Detail
	assert.Equal(t, models.StatusOpened, detail.Status)
	assert.Equal(t, "中央一丁目", detail.AddressPrimary)
	assert.Nil(t, detail.Locality)
	assert.True(t, detail.OpenedAt.Equal(time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local)))
	assert.Equal(t, models.NotifySent, records[0].Statement.NotifyState)

	// The past-zone statement closed past midnight.
	past := models.ZonePast
	records, err = e.db.ListDisasters(ctx, repository.Filter{Zone: &past})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Detail.ClosedAt)
	assert.True(t, records[0].Detail.ClosedAt.Equal(time.Date(2024, 3, 5, 0, 10, 0, 0, time.Local)))
}

func TestPipeline_RunTwiceIsIdempotent(t *testing.T) {
	e := setup(t, testPage)
	ctx := context.Background()

	require.NoError(t, e.pipeline.Run(ctx))
	require.NoError(t, e.pipeline.Run(ctx))

	count, err := e.db.CountStatements(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "identical page must not double-ingest")

	// SENT records are never re-delivered, even across process restarts:
	// the state lives in the store, not in memory.
	assert.Len(t, e.sender.messages, 2)
}

func TestPipeline_StructureErrorIngestsNothing(t *testing.T) {
	e := setup(t, "ただのページ。災害情報のマーカーがありません。")
	ctx := context.Background()

	err := e.pipeline.Run(ctx)
	require.Error(t, err)

	var structErr *bulletin.StructureError
	assert.True(t, errors.As(err, &structErr))

	count, err := e.db.CountStatements(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	assert.Empty(t, e.sender.messages)
}

func TestPipeline_Backfill(t *testing.T) {
	e := setup(t, testPage)
	ctx := context.Background()

	dir := t.TempDir()
	snapshot := `ヘッダ
↓現在発生している災害↓
（なし）
↑現在発生している災害↑
中略
↓過去の災害経過情報↓
<span>10月20日 08:30 長岡市 宮内一丁目 ◇◇の建物火災は09:00鎮火しました。</span>
↑過去の災害経過情報↑
フッタ`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20231101_0630.txt"), []byte(snapshot), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a snapshot"), 0o644))

	require.NoError(t, e.pipeline.Backfill(ctx, dir))

	count, err := e.db.CountStatements(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "malformed file names are skipped")

	// Backfilled statements are analyzed with the snapshot date as
	// reference but never notified.
	assert.Empty(t, e.sender.messages)
	pending, err := e.db.ListPendingNotify(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	past := models.ZonePast
	records, err := e.db.ListDisasters(ctx, repository.Filter{Zone: &past})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotifySkipped, records[0].Statement.NotifyState)
	assert.True(t, records[0].Detail.OpenedAt.Equal(time.Date(2023, 10, 20, 8, 30, 0, 0, time.Local)))
}
