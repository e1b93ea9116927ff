package service

import (
	"context"
	"sort"
	"time"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportRange string

const (
	RangeToday ReportRange = "today"
	RangeWeek  ReportRange = "week"
	RangeMonth ReportRange = "month"
	RangeAll   ReportRange = "all"
)

func ParseReportRange(s string) (ReportRange, error) {
	switch r := ReportRange(s); r {
	case RangeToday, RangeWeek, RangeMonth, RangeAll:
		return r, nil
	case "":
		return RangeAll, nil
	}
	return "", ErrInvalidRange
}

// Start returns the first instant covered by the range. RangeAll has a zero start.
func (r ReportRange) Start(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeToday:
		return day
	case RangeWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

type ChartPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ReportTotals struct {
	Records  int             `json:"records"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

type ArchiveReport struct {
	Range    ReportRange              `json:"range"`
	From     *time.Time               `json:"from,omitempty"`
	Items    []model.ArchiveRecord    `json:"items"`
	Chart    []ChartPoint             `json:"chart"`
	Totals   ReportTotals             `json:"totals"`
	ByAction map[model.ActionType]int `json:"by_action"`
}

// BuildArchiveReport keeps the records inside the range, sorts them by quantity (largest first)
// and counts them per calendar day for the chart.
func BuildArchiveReport(records []model.ArchiveRecord, r ReportRange, now time.Time) ArchiveReport {
	start := r.Start(now)
	report := ArchiveReport{
		Range:    r,
		Items:    make([]model.ArchiveRecord, 0, len(records)),
		Chart:    []ChartPoint{},
		Totals:   ReportTotals{Value: decimal.Zero},
		ByAction: map[model.ActionType]int{},
	}
	if !start.IsZero() {
		report.From = &start
	}

	perDay := map[string]int{}
	for _, rec := range records {
		if !start.IsZero() && rec.CreatedAt.Before(start) {
			continue
		}
		report.Items = append(report.Items, rec)
		report.Totals.Records++
		report.Totals.Quantity += rec.Quantity
		report.Totals.Value = report.Totals.Value.Add(rec.Price.Mul(decimal.NewFromInt(int64(rec.Quantity))))
		report.ByAction[rec.ActionType]++
		perDay[rec.CreatedAt.In(now.Location()).Format("2006-01-02")]++
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].Quantity > report.Items[j].Quantity
	})
	for day, n := range perDay {
		report.Chart = append(report.Chart, ChartPoint{Date: day, Count: n})
	}
	sort.Slice(report.Chart, func(i, j int) bool {
		return report.Chart[i].Date < report.Chart[j].Date
	})
	return report
}

type ReportService interface {
	Archive(ctx context.Context, s model.Session, r ReportRange) (*ArchiveReport, error)
}

type reportService struct {
	archive repository.ArchiveRepository
	now     func() time.Time
}

func NewReportService(archive repository.ArchiveRepository) ReportService {
	return &reportService{archive: archive, now: time.Now}
}

func (s *reportService) Archive(ctx context.Context, sess model.Session, r ReportRange) (*ArchiveReport, error) {
	ctx, span := tracer.Start(ctx, "Report.Service.Archive")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	now := s.now()
	records, err := s.archive.ListByPharmacy(ctx, sess.PharmacyID, r.Start(now))
	if err != nil {
		return nil, recordErr(span, err)
	}
	report := BuildArchiveReport(records, r, now)
	return &report, nil
}
