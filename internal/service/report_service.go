package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// UsersCSVHeader is the first line of the users report
const UsersCSVHeader = "Name,Role,Current Points,Memory Work Points,Bonus/Adjustment Points,Total Spent"

// ReportService renders exports
type ReportService struct {
	points *PointsService
}

// NewReportService creates a new report service
func NewReportService(points *PointsService) *ReportService {
	return &ReportService{points: points}
}

// UsersCSV writes one row per user, highest balance first. Names are always
// quoted so spreadsheet tools never reinterpret them.
func (s *ReportService) UsersCSV(ctx context.Context, w io.Writer) error {
	summaries, err := s.points.Summaries(ctx)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, UsersCSVHeader)
	for _, u := range summaries {
		fmt.Fprintf(bw, "%s,%s,%d,%d,%d,%d\n",
			quoteCSV(u.Name),
			u.Role,
			u.CurrentPoints,
			u.MemoryPoints,
			u.BonusPoints,
			u.TotalSpent,
		)
	}
	return bw.Flush()
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
