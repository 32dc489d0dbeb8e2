package report

import (
	"context"

	"github.com/baechuer/nippou-service/internal/domain"
)

// Repo persists reports. Upsert is last-write-wins by id; Delete of a missing
// id is not an error. Get returns domain.ErrReportNotFound when absent.
type Repo interface {
	List(ctx context.Context) ([]domain.Report, error)
	Get(ctx context.Context, id string) (domain.Report, error)
	Upsert(ctx context.Context, r domain.Report) (domain.Report, error)
	Delete(ctx context.Context, id string) error
}

// Actor is the authenticated caller, when there is one.
type Actor struct {
	UserID string
	Name   string
	Team   string
}
