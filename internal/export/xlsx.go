package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rciconnect/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const applicationsSheet = "Applications"

// ApplicationLister is the slice of the repository the exporter needs.
type ApplicationLister interface {
	ListApplications(ctx context.Context, status string) ([]*models.ConsultantApplication, error)
}

// Exporter writes admin-facing xlsx workbooks into the configured export
// directory.
type Exporter struct {
	repo   ApplicationLister
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo ApplicationLister, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		path:   path,
		logger: logger,
	}
}

// ExportApplications writes every application matching the status filter
// (empty means all) into a dated workbook and returns its path.
func (e *Exporter) ExportApplications(ctx context.Context, status string) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	apps, err := e.repo.ListApplications(ctx, status)
	if err != nil {
		return "", fmt.Errorf("error getting applications: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(applicationsSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	writeHeaders(f)
	for i, app := range apps {
		writeApplicationRow(f, i+2, app)
	}

	_ = f.SetColWidth(applicationsSheet, "A", "A", 38)
	_ = f.SetColWidth(applicationsSheet, "B", "C", 28)
	_ = f.SetColWidth(applicationsSheet, "D", "J", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("applications_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("applications", len(apps)).Msg("applications export created")
	return filePath, nil
}

func writeHeaders(f *excelize.File) {
	headers := []string{
		"ID", "Email", "Full Name", "Phone", "License", "Status",
		"Sections", "Requested", "Submitted", "Updated",
	}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(applicationsSheet, cell, header)
		_ = f.SetCellStyle(applicationsSheet, cell, cell, style)
	}
}

func writeApplicationRow(f *excelize.File, row int, app *models.ConsultantApplication) {
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("A%d", row), app.ID)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("B%d", row), app.Email)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("C%d", row), app.FullName)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("D%d", row), app.Phone)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("E%d", row), app.LicenseNumber)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("F%d", row), app.Status)
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("G%d", row),
		fmt.Sprintf("%d/%d", app.Sections.Count(), models.SectionCount))
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("H%d", row), joinInts(app.SectionsRequested))
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("I%d", row), app.CreatedAt.Format("02.01.2006 15:04"))
	_ = f.SetCellValue(applicationsSheet, fmt.Sprintf("J%d", row), app.UpdatedAt.Format("02.01.2006 15:04"))
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ", ")
}
