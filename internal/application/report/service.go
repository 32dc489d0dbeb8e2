package report

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/nippou-service/internal/domain"
)

type Config struct {
	// EnforceOwnership scopes create/update/delete to the session user.
	EnforceOwnership bool
}

type Service struct {
	repo Repo
	cfg  Config
}

func NewService(repo Repo, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

func (s *Service) EnforcesOwnership() bool { return s.cfg.EnforceOwnership }

func (s *Service) List(ctx context.Context) ([]domain.Report, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = normalize(out[i])
	}
	return out, nil
}

// Create stores a new report, or replaces the one with the same id.
func (s *Service) Create(ctx context.Context, actor *Actor, r domain.Report) (domain.Report, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	return s.save(ctx, actor, r)
}

// Update replaces the report at pathID. An empty body id takes the path id; a
// different one is rejected.
func (s *Service) Update(ctx context.Context, actor *Actor, pathID string, r domain.Report) (domain.Report, error) {
	if pathID == "" {
		return domain.Report{}, domain.ErrMissingField("id")
	}
	if r.ID == "" {
		r.ID = pathID
	}
	if r.ID != pathID {
		return domain.Report{}, domain.ErrIDMismatch(pathID, r.ID)
	}
	return s.save(ctx, actor, r)
}

// Delete removes a report. Missing ids are a no-op.
func (s *Service) Delete(ctx context.Context, actor *Actor, id string) error {
	if id == "" {
		return domain.ErrMissingField("id")
	}
	if s.cfg.EnforceOwnership {
		if actor == nil {
			return domain.ErrTokenMissing()
		}
		if err := s.checkOwner(ctx, actor, id); err != nil {
			if domain.Is(err, "report_not_found") {
				return nil
			}
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) save(ctx context.Context, actor *Actor, r domain.Report) (domain.Report, error) {
	if strings.TrimSpace(r.Content) == "" {
		return domain.Report{}, domain.ErrMissingField("content")
	}

	if s.cfg.EnforceOwnership {
		if actor == nil {
			return domain.Report{}, domain.ErrTokenMissing()
		}
		if err := s.checkOwner(ctx, actor, r.ID); err != nil && !domain.Is(err, "report_not_found") {
			return domain.Report{}, err
		}
		r.UserID = actor.UserID
		r.UserName = actor.Name
		r.Team = actor.Team
	}

	saved, err := s.repo.Upsert(ctx, normalize(r))
	if err != nil {
		return domain.Report{}, err
	}
	return normalize(saved), nil
}

// checkOwner returns ErrReportNotFound for a new id, ErrNotReportOwner when the
// stored report belongs to someone else.
func (s *Service) checkOwner(ctx context.Context, actor *Actor, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != actor.UserID {
		return domain.ErrNotReportOwner()
	}
	return nil
}

func normalize(r domain.Report) domain.Report {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}
