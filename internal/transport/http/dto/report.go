package dto

import "github.com/baechuer/nippou-service/internal/domain"

// ReportRequest carries a report upsert. Date is a free-form calendar string
// and is stored as sent.
type ReportRequest struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	UserName string   `json:"userName"`
	Team     string   `json:"team"`
	Date     string   `json:"date"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content" validate:"required"`
}

func (r *ReportRequest) Validate() error {
	return validateStruct(r)
}

func (r ReportRequest) ToDomain() domain.Report {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Report{
		ID:       r.ID,
		UserID:   r.UserID,
		UserName: r.UserName,
		Team:     r.Team,
		Date:     r.Date,
		Tags:     tags,
		Content:  r.Content,
	}
}

type ReportResponse struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	UserName string   `json:"userName"`
	Team     string   `json:"team"`
	Date     string   `json:"date"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content"`
}

func NewReportResponse(r domain.Report) ReportResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return ReportResponse{
		ID:       r.ID,
		UserID:   r.UserID,
		UserName: r.UserName,
		Team:     r.Team,
		Date:     r.Date,
		Tags:     tags,
		Content:  r.Content,
	}
}

// NewReportList always returns a non-nil slice so an empty list encodes as [].
func NewReportList(in []domain.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(in))
	for _, r := range in {
		out = append(out, NewReportResponse(r))
	}
	return out
}
