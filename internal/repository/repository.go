package repository

import (
	"context"
	"time"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

type Filter struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Zone     *models.Zone
	Category *models.Category
	Status   *models.Status
}

// DisasterRecord is a raw statement joined with its parsed detail,
// as served by the read API.
type DisasterRecord struct {
	Statement models.RawStatement
	Detail    models.DisasterDetail
}

type StatementRepository interface {
	AddStatement(ctx context.Context, s *models.RawStatement) error
	StatementExists(ctx context.Context, text string, zone models.Zone) (bool, error)
	ListUnanalyzed(ctx context.Context) ([]models.RawStatement, error)
	ListPendingNotify(ctx context.Context) ([]models.RawStatement, error)
	MarkSent(ctx context.Context, id int64) error
	DeleteStatement(ctx context.Context, id int64) error
	CountStatements(ctx context.Context) (int64, error)
}

type DetailRepository interface {
	AddDetail(ctx context.Context, d *models.DisasterDetail) error
	DetailByStatementID(ctx context.Context, statementID int64) (*models.DisasterDetail, error)
	ListDisasters(ctx context.Context, opts Filter) ([]DisasterRecord, error)
}
