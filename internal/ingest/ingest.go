// Package ingest writes extracted bulletin statements into the store,
// deduplicating against what earlier runs already saw.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

// Store is the slice of the repository the ingestor needs.
type Store interface {
	StatementExists(ctx context.Context, text string, zone models.Zone) (bool, error)
	AddStatement(ctx context.Context, s *models.RawStatement) error
}

type Ingestor struct {
	store Store
}

func NewIngestor(store Store) *Ingestor {
	return &Ingestor{store: store}
}

// Ingest inserts each statement that is not already present for the zone,
// committing per record so a crash mid-pass leaves earlier inserts durable
// and a retry skips them cleanly. Statements arrive newest first from the
// page, so insertion walks them in reverse to keep IDs oldest-first.
// Backfilled statements start SKIPPED instead of PENDING so historical
// imports never notify. Returns the number of rows inserted.
func (i *Ingestor) Ingest(ctx context.Context, statements []string, zone models.Zone, retrievedAt time.Time, backfill bool) (int, error) {
	state := models.NotifyPending
	if backfill {
		state = models.NotifySkipped
	}

	inserted := 0
	for idx := len(statements) - 1; idx >= 0; idx-- {
		text := statements[idx]

		exists, err := i.store.StatementExists(ctx, text, zone)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		st := &models.RawStatement{
			Text:        text,
			RetrievedAt: retrievedAt,
			Zone:        zone,
			NotifyState: state,
		}
		if err := i.store.AddStatement(ctx, st); err != nil {
			// A failed insert is isolated to its record; the rest of
			// the pass continues.
			slog.Error("error inserting statement", "zone", zone, "error", err)
			continue
		}

		slog.Info("statement ingested", "id", st.ID, "zone", zone)
		inserted++
	}

	return inserted, nil
}
