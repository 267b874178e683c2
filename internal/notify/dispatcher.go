// Package notify renders and delivers one message per pending statement,
// exactly once.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

// Store is the slice of the repository the dispatcher needs.
type Store interface {
	ListPendingNotify(ctx context.Context) ([]models.RawStatement, error)
	DetailByStatementID(ctx context.Context, statementID int64) (*models.DisasterDetail, error)
	MarkSent(ctx context.Context, id int64) error
}

// Sender delivers a rendered message to the external channel.
type Sender interface {
	Post(ctx context.Context, message string) error
}

type Dispatcher struct {
	store    Store
	renderer *Renderer
	sender   Sender
}

func NewDispatcher(store Store, renderer *Renderer, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:    store,
		renderer: renderer,
		sender:   sender,
	}
}

// DispatchPending sends one message per PENDING statement and marks each
// SENT as soon as its send succeeds, committing per record. A send failure
// aborts the remaining pass; rows already marked SENT stay sent and are
// never re-delivered on retry.
func (d *Dispatcher) DispatchPending(ctx context.Context) (sent int, err error) {
	pending, err := d.store.ListPendingNotify(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing pending statements: %w", err)
	}

	for _, st := range pending {
		detail, err := d.store.DetailByStatementID(ctx, st.ID)
		if err != nil {
			// Pending rows are only selected after analysis, so a missing
			// detail means the row is still mid-analysis; leave it for the
			// next pass.
			slog.Warn("pending statement has no detail yet", "id", st.ID, "error", err)
			continue
		}

		message, err := d.renderer.Render(*detail)
		if err != nil {
			return sent, fmt.Errorf("error rendering message for statement %d: %w", st.ID, err)
		}

		if err := d.sender.Post(ctx, message); err != nil {
			return sent, fmt.Errorf("error sending notification for statement %d: %w", st.ID, err)
		}

		if err := d.store.MarkSent(ctx, st.ID); err != nil {
			return sent, fmt.Errorf("error marking statement %d as sent: %w", st.ID, err)
		}

		slog.Info("notification sent", "id", st.ID)
		sent++
	}

	return sent, nil
}
