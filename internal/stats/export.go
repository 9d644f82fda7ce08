package stats

import (
	"context"
	"io"

	"github.com/gocarina/gocsv"
)

// ExportPeriodCSV writes a period's session report as CSV.
func (r *Reporter) ExportPeriodCSV(ctx context.Context, periodID int64, w io.Writer) error {
	rows, err := r.PeriodReport(ctx, periodID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(&rows, w)
}

// ExportSessionCSV writes a session's trade report as CSV.
func (r *Reporter) ExportSessionCSV(ctx context.Context, sessionID int64, w io.Writer) error {
	rows, err := r.SessionReport(ctx, sessionID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(&rows, w)
}
