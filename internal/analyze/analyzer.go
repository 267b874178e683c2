package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

// Store is the slice of the repository the analyzer needs.
type Store interface {
	ListUnanalyzed(ctx context.Context) ([]models.RawStatement, error)
	AddDetail(ctx context.Context, d *models.DisasterDetail) error
}

// Analyzer parses every ingested statement that has no detail record yet.
type Analyzer struct {
	store    Store
	homeCity string
}

func NewAnalyzer(store Store, homeCity string) *Analyzer {
	return &Analyzer{
		store:    store,
		homeCity: homeCity,
	}
}

// AnalyzeAll runs the two-stage parse over all unanalyzed statements and
// persists one detail per statement, committing per record. A statement
// that fails to parse or persist is logged and skipped; it never aborts
// the rest of the pass.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (analyzed, failed int, err error) {
	statements, err := a.store.ListUnanalyzed(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("error listing unanalyzed statements: %w", err)
	}

	for _, st := range statements {
		detail, parseErr := ParseStatement(st, a.homeCity)
		if parseErr != nil {
			var pe *ParseError
			if errors.As(parseErr, &pe) {
				slog.Error("statement analysis failed", "id", st.ID, "stage", pe.Stage, "error", parseErr)
			} else {
				slog.Error("statement analysis failed", "id", st.ID, "error", parseErr)
			}
			failed++
			continue
		}

		if err := a.store.AddDetail(ctx, detail); err != nil {
			slog.Error("error persisting detail", "id", st.ID, "error", err)
			failed++
			continue
		}

		slog.Info("statement analyzed", "id", st.ID, "category", detail.Category, "status", detail.Status)
		analyzed++
	}

	return analyzed, failed, nil
}
