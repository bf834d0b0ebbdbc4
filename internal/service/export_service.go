package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/insights"
	"carepath-portal/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
	ExportFormatXLSX = "xlsx"
)

// checklistExportHeader column order shared by the CSV and XLSX exports.
var checklistExportHeader = []string{
	"Section",
	"Task",
	"Status",
	"Due Date",
	"Completed At",
	"Link",
}

// ExportService checklist snapshot downloads.
type ExportService interface {
	// ExportChecklist renders the target user's checklist plus progress
	// summary. Users may export their own; admins may export anyone's.
	ExportChecklist(ctx context.Context, actor domain.Actor, userID, format string) (*ExportResult, error)
}

// ExportResult a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type exportService struct {
	checklistsRepo repository.ChecklistsRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewExportService creates an ExportService instance.
func NewExportService(checklistsRepo repository.ChecklistsRepository, logger *zap.Logger) ExportService {
	return &exportService{
		checklistsRepo: checklistsRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *exportService) ExportChecklist(ctx context.Context, actor domain.Actor, userID, format string) (*ExportResult, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	progress := insights.CalculateProgress(checklist)

	filename := fmt.Sprintf("onboarding_%s_%s", sanitizeFilePart(checklist.Role), s.now().Format("2006-01-02"))

	switch format {
	case ExportFormatCSV:
		data, err := renderChecklistCSV(checklist, progress)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: filename + ".csv", ContentType: "text/csv", Data: data}, nil
	case ExportFormatJSON:
		data, err := renderChecklistJSON(checklist, progress)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: filename + ".json", ContentType: "application/json", Data: data}, nil
	case ExportFormatXLSX:
		data, err := renderChecklistXLSX(checklist, progress)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Filename:    filename + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, ErrInvalidInput
	}
}

func sanitizeFilePart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

func itemDue(it domain.UserItem) string {
	if !it.DueDate.Valid {
		return ""
	}
	return it.DueDate.Time.Format("2006-01-02")
}

func itemCompleted(it domain.UserItem) string {
	if !it.CompletedAt.Valid {
		return ""
	}
	return it.CompletedAt.Time.Format("2006-01-02")
}

func renderChecklistCSV(c *domain.UserChecklist, progress insights.Progress) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(checklistExportHeader); err != nil {
		return nil, err
	}
	for _, section := range c.Sections {
		for _, it := range section.Items {
			record := []string{
				section.Title,
				it.Title,
				it.Status,
				itemDue(it),
				itemCompleted(it),
				it.LinkURL.String,
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	// Trailing progress summary rows.
	_ = w.Write([]string{})
	_ = w.Write([]string{"Total", fmt.Sprintf("%d", progress.Total)})
	_ = w.Write([]string{"Completed", fmt.Sprintf("%d", progress.Completed)})
	_ = w.Write([]string{"In Progress", fmt.Sprintf("%d", progress.InProgress)})
	_ = w.Write([]string{"Not Started", fmt.Sprintf("%d", progress.NotStarted)})
	_ = w.Write([]string{"Percentage", fmt.Sprintf("%d%%", progress.Percentage)})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderChecklistJSON(c *domain.UserChecklist, progress insights.Progress) ([]byte, error) {
	snapshot := struct {
		Checklist *ChecklistDTO     `json:"checklist"`
		Progress  insights.Progress `json:"progress"`
	}{
		Checklist: toChecklistDTO(c),
		Progress:  progress,
	}
	return json.MarshalIndent(snapshot, "", "  ")
}

func renderChecklistXLSX(c *domain.UserChecklist, progress insights.Progress) ([]byte, error) {
	f := excelize.NewFile()
	// Note: don't defer Close() here, WriteTo needs the file open.

	sheetName := "Checklist"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for col, header := range checklistExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "A", "B", 32)
	_ = f.SetColWidth(sheetName, "C", "F", 18)

	row := 2
	for _, section := range c.Sections {
		for _, it := range section.Items {
			values := []any{section.Title, it.Title, it.Status, itemDue(it), itemCompleted(it), it.LinkURL.String}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheetName, cell, v)
			}
			row++
		}
	}

	row++
	summary := [][2]any{
		{"Total", progress.Total},
		{"Completed", progress.Completed},
		{"In Progress", progress.InProgress},
		{"Not Started", progress.NotStarted},
		{"Percentage", fmt.Sprintf("%d%%", progress.Percentage)},
	}
	for _, pair := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheetName, keyCell, pair[0])
		_ = f.SetCellValue(sheetName, valCell, pair[1])
		row++
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
