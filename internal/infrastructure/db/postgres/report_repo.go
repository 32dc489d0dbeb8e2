package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/baechuer/nippou-service/internal/domain"
)

const reportColumns = `id, user_id, user_name, team, date, tags, content`

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func scanReport(row rowScanner) (domain.Report, error) {
	var (
		rep  domain.Report
		tags pq.StringArray
	)
	err := row.Scan(&rep.ID, &rep.UserID, &rep.UserName, &rep.Team, &rep.Date, &tags, &rep.Content)
	if err != nil {
		return domain.Report{}, err
	}
	rep.Tags = []string(tags)
	if rep.Tags == nil {
		rep.Tags = []string{}
	}
	return rep, nil
}

func (r *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM reports
ORDER BY date DESC, created_at DESC, id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := []domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM reports
WHERE id = $1;
`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, domain.ErrReportNotFound()
		}
		return domain.Report{}, domain.ErrDBUnavailable(err)
	}
	return rep, nil
}

// Upsert inserts or fully replaces the report with the same id.
func (r *ReportRepo) Upsert(ctx context.Context, rep domain.Report) (domain.Report, error) {
	if rep.ID == "" {
		return domain.Report{}, domain.ErrMissingField("id")
	}
	tags := rep.Tags
	if tags == nil {
		tags = []string{}
	}

	const q = `
INSERT INTO reports (id, user_id, user_name, team, date, tags, content)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE
SET user_id = EXCLUDED.user_id,
    user_name = EXCLUDED.user_name,
    team = EXCLUDED.team,
    date = EXCLUDED.date,
    tags = EXCLUDED.tags,
    content = EXCLUDED.content,
    updated_at = NOW()
RETURNING ` + reportColumns + `;
`
	saved, err := scanReport(r.db.QueryRowContext(ctx, q,
		rep.ID, rep.UserID, rep.UserName, rep.Team, rep.Date, pq.Array(tags), rep.Content,
	))
	if err != nil {
		return domain.Report{}, domain.ErrDBUnavailable(err)
	}
	return saved, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reports WHERE id = $1;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
