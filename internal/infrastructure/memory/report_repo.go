package memory

import (
	"context"
	"sync"

	"github.com/baechuer/nippou-service/internal/domain"
)

// ReportRepo keeps reports in insertion order.
type ReportRepo struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Report
}

func NewReportRepo() *ReportRepo {
	return &ReportRepo{byID: make(map[string]domain.Report)}
}

func (r *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Report, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyReport(r.byID[id]))
	}
	return out, nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.byID[id]
	if !ok {
		return domain.Report{}, domain.ErrReportNotFound()
	}
	return copyReport(rep), nil
}

func (r *ReportRepo) Upsert(ctx context.Context, rep domain.Report) (domain.Report, error) {
	if rep.ID == "" {
		return domain.Report{}, domain.ErrMissingField("id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rep.ID]; !ok {
		r.order = append(r.order, rep.ID)
	}
	r.byID[rep.ID] = copyReport(rep)
	return copyReport(rep), nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return nil
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyReport(rep domain.Report) domain.Report {
	tags := make([]string, len(rep.Tags))
	copy(tags, rep.Tags)
	rep.Tags = tags
	return rep
}
