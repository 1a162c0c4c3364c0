package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

func TestExportApplicationsCSV(t *testing.T) {
	tech := "Go, Postgres"
	store := &fakeAnalyticsStore{apps: []models.Application{{
		CompanyName:   "Acme",
		PositionTitle: "Backend Engineer",
		Location:      "Berlin",
		Status:        models.StatusReplied,
		TechStack:     &tech,
		PriorityStars: 4,
		AppliedDate:   time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
	}}}
	svc := NewExportService(store, zap.NewNop())

	result, err := svc.Applications(context.Background(), "u1", FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "applications.csv", result.Filename)

	content := string(result.Content)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Company")
	assert.Contains(t, lines[1], "Acme")
	assert.Contains(t, lines[1], "Replied")
	assert.Contains(t, lines[1], "2026-02-14")
}

func TestExportApplicationsPDF(t *testing.T) {
	store := &fakeAnalyticsStore{apps: []models.Application{{
		CompanyName:   "Acme",
		PositionTitle: "Backend Engineer",
		Location:      "Berlin",
		Status:        models.StatusApplied,
		AppliedDate:   time.Now(),
	}}}
	svc := NewExportService(store, zap.NewNop())

	result, err := svc.Applications(context.Background(), "u1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeAnalyticsStore{}, zap.NewNop())

	_, err := svc.Applications(context.Background(), "u1", ExportFormat("xml"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
