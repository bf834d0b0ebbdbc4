package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func exportFixture(t *testing.T) (*exportService, string) {
	t.Helper()
	users := repository.NewMemoryUsersRepo()
	checklists := repository.NewMemoryChecklistsRepo(users)
	ctx := context.Background()

	u := &domain.User{Email: "rn@example.com", FirstName: "Dana", LastName: "Reyes", Role: "RN", Status: domain.UserStatusApproved}
	_, err := users.CreateUser(ctx, u)
	require.NoError(t, err)

	_, err = checklists.CreateChecklist(ctx, &domain.UserChecklist{
		UserID: u.UserID,
		Role:   "RN",
		Sections: []domain.UserSection{
			{
				Title: "Paperwork",
				Items: []domain.UserItem{
					{
						Title:       "Sign NDA",
						Status:      domain.ItemStatusComplete,
						CompletedAt: sql.NullTime{Time: checklistTestNow.Add(-48 * time.Hour), Valid: true},
					},
					{
						Title:   "Upload License",
						Status:  domain.ItemStatusNotStarted,
						DueDate: sql.NullTime{Time: checklistTestNow.AddDate(0, 0, 7), Valid: true},
					},
				},
			},
		},
	})
	require.NoError(t, err)

	return &exportService{
		checklistsRepo: checklists,
		logger:         zap.NewNop(),
		now:            func() time.Time { return checklistTestNow },
	}, u.UserID
}

func TestNewExportServiceExports(t *testing.T) {
	fixture, userID := exportFixture(t)

	svc := NewExportService(fixture.checklistsRepo, zap.NewNop())
	result, err := svc.ExportChecklist(context.Background(), domain.Actor{UserID: userID, Role: "RN"}, "", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.NotEmpty(t, result.Data)
}

func TestExportChecklistCSV(t *testing.T) {
	svc, userID := exportFixture(t)
	actor := domain.Actor{UserID: userID, Role: "RN"}

	result, err := svc.ExportChecklist(context.Background(), actor, "", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "onboarding_rn_2026-03-15.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	reader := csv.NewReader(bytes.NewReader(result.Data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, checklistExportHeader, records[0])
	assert.Equal(t, "Sign NDA", records[1][1])
	assert.Equal(t, domain.ItemStatusComplete, records[1][2])
	assert.Equal(t, "2026-03-13", records[1][4])
	assert.Equal(t, "2026-03-22", records[2][3])

	// Progress summary trails the item rows.
	last := records[len(records)-1]
	assert.Equal(t, "Percentage", last[0])
	assert.Equal(t, "50%", last[1])
}

func TestExportChecklistJSON(t *testing.T) {
	svc, userID := exportFixture(t)
	actor := domain.Actor{UserID: userID, Role: "RN"}

	result, err := svc.ExportChecklist(context.Background(), actor, "", ExportFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "onboarding_rn_2026-03-15.json", result.Filename)

	var snapshot struct {
		Checklist *ChecklistDTO `json:"checklist"`
		Progress  struct {
			Total      int `json:"total"`
			Completed  int `json:"completed"`
			Percentage int `json:"percentage"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &snapshot))
	require.NotNil(t, snapshot.Checklist)
	assert.Equal(t, 2, snapshot.Progress.Total)
	assert.Equal(t, 1, snapshot.Progress.Completed)
	assert.Equal(t, 50, snapshot.Progress.Percentage)
}

func TestExportChecklistXLSX(t *testing.T) {
	svc, userID := exportFixture(t)
	actor := domain.Actor{UserID: userID, Role: "RN"}

	result, err := svc.ExportChecklist(context.Background(), actor, "", ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "onboarding_rn_2026-03-15.xlsx", result.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Checklist", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Sign NDA", title)
}

func TestExportAuthorization(t *testing.T) {
	svc, userID := exportFixture(t)

	// Another non-admin cannot export someone else's checklist.
	_, err := svc.ExportChecklist(context.Background(), domain.Actor{UserID: "someone-else", Role: "RN"}, userID, ExportFormatCSV)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can.
	result, err := svc.ExportChecklist(context.Background(), domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}, userID, ExportFormatCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data)

	// Unknown formats are rejected.
	_, err = svc.ExportChecklist(context.Background(), domain.Actor{UserID: userID, Role: "RN"}, "", "pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
