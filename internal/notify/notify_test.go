package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
	"github.com/fwdgo/fwd-nagaoka/internal/notify"
	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

type fakeSender struct {
	messages []string
	failAt   int // 1-based index of the call that fails; 0 means never
	calls    int
}

func (f *fakeSender) Post(_ context.Context, message string) error {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return errors.New("webhook unreachable")
	}
	f.messages = append(f.messages, message)
	return nil
}

func seedDisaster(t *testing.T, db *repository.SQLiteDB, text string, status models.Status) *models.RawStatement {
	t.Helper()
	ctx := context.Background()

	st := &models.RawStatement{
		Text:        text,
		RetrievedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local),
		Zone:        models.ZoneCurrent,
		NotifyState: models.NotifyPending,
	}
	require.NoError(t, db.AddStatement(ctx, st))

	detail := &models.DisasterDetail{
		StatementID:    st.ID,
		Category:       models.CategoryFire,
		CategoryDetail: "建物火災",
		OpenedAt:       time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local),
		Status:         status,
		AddressPrimary: "中央一丁目",
	}
	require.NoError(t, db.AddDetail(ctx, detail))
	return st
}

func TestRenderer(t *testing.T) {
	renderer := notify.NewRenderer()

	t.Run("open disaster", func(t *testing.T) {
		message, err := renderer.Render(models.DisasterDetail{
			Category:       models.CategoryFire,
			CategoryDetail: "建物火災",
			OpenedAt:       time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local),
			Status:         models.StatusOpened,
			AddressPrimary: "中央一丁目",
		})

		require.NoError(t, err)
		assert.Contains(t, message, "【火災】建物火災")
		assert.Contains(t, message, "発生時刻: 2024/03/05 09:15")
		assert.Contains(t, message, "状態: 発生")
		assert.Contains(t, message, "住所: 中央一丁目")
		assert.NotContains(t, message, "終了時刻")
	})

	t.Run("closed disaster with locality and secondary address", func(t *testing.T) {
		closedAt := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
		locality := "見附市"
		addrSec := "○○"
		message, err := renderer.Render(models.DisasterDetail{
			Category:         models.CategoryRescue,
			CategoryDetail:   "救助事案",
			OpenedAt:         time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local),
			ClosedAt:         &closedAt,
			Status:           models.StatusRescueComplete,
			Locality:         &locality,
			AddressPrimary:   "本町一丁目",
			AddressSecondary: &addrSec,
		})

		require.NoError(t, err)
		assert.Contains(t, message, "【救助】救助事案")
		assert.Contains(t, message, "終了時刻: 2024/03/05 14:30")
		assert.Contains(t, message, "状態: 救助終了")
		assert.Contains(t, message, "住所: 見附市 本町一丁目 ○○")
	})
}

func TestDispatchPending(t *testing.T) {
	t.Run("sends and marks each pending record", func(t *testing.T) {
		db, err := repository.NewSQLiteDB(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		seedDisaster(t, db, "first", models.StatusOpened)
		seedDisaster(t, db, "second", models.StatusOpened)

		sender := &fakeSender{}
		dispatcher := notify.NewDispatcher(db, notify.NewRenderer(), sender)

		sent, err := dispatcher.DispatchPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		assert.Len(t, sender.messages, 2)

		// Nothing pending afterwards: a second pass sends nothing.
		sent, err = dispatcher.DispatchPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.Len(t, sender.messages, 2)
	})

	t.Run("send failure aborts the pass but keeps earlier sends", func(t *testing.T) {
		db, err := repository.NewSQLiteDB(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		first := seedDisaster(t, db, "first", models.StatusOpened)
		seedDisaster(t, db, "second", models.StatusOpened)
		seedDisaster(t, db, "third", models.StatusOpened)

		sender := &fakeSender{failAt: 2}
		dispatcher := notify.NewDispatcher(db, notify.NewRenderer(), sender)

		sent, err := dispatcher.DispatchPending(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, sent)

		pending, err := db.ListPendingNotify(context.Background())
		require.NoError(t, err)
		require.Len(t, pending, 2)
		for _, st := range pending {
			assert.NotEqual(t, first.ID, st.ID, "sent record must stay SENT")
		}

		// Retry after the outage delivers only the remaining two.
		sender.failAt = 0
		sent, err = dispatcher.DispatchPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
	})
}
