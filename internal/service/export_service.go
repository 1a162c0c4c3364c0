package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
	"github.com/applyquest/applyquest-api/pkg/export"
)

// ExportFormat selects the rendered export type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the user's applications into downloadable files.
type ExportService struct {
	store  AnalyticsStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(store AnalyticsStore, logger *zap.Logger) *ExportService {
	return &ExportService{
		store:  store,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Applications exports the full application list in the requested format.
func (s *ExportService) Applications(ctx context.Context, userID string, format ExportFormat) (*ExportResult, error) {
	apps, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load applications")
	}

	dataset := applicationDataset(apps)
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "applications.csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Job Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "applications.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func applicationDataset(apps []models.Application) export.Dataset {
	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		tech := ""
		if app.TechStack != nil {
			tech = *app.TechStack
		}
		rows = append(rows, []string{
			app.CompanyName,
			app.PositionTitle,
			app.Location,
			string(app.Status),
			app.AppliedDate.Format("2006-01-02"),
			tech,
			strconv.Itoa(app.PriorityStars),
		})
	}
	return export.Dataset{
		Headers: []string{"Company", "Position", "Location", "Status", "Applied", "Tech Stack", "Priority"},
		Rows:    rows,
	}
}
