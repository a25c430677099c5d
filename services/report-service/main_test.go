package main

import (
	"testing"
	"time"

	"onspace/pkg/middleware"
	"onspace/services/report-service/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateCreateInput(t *testing.T) {
	tests := []struct {
		name    string
		input   createReportInput
		wantErr bool
	}{
		{"valid", createReportInput{Title: "Buraco na Rua X", Description: "Grande", Category: "buraco"}, false},
		{"valid with severity", createReportInput{Title: "t", Description: "d", Category: "perigo", Severity: "alta"}, false},
		{"missing title", createReportInput{Description: "d", Category: "buraco"}, true},
		{"missing description", createReportInput{Title: "t", Category: "buraco"}, true},
		{"missing category", createReportInput{Title: "t", Description: "d"}, true},
		{"bad category", createReportInput{Title: "t", Description: "d", Category: "outro"}, true},
		{"bad severity", createReportInput{Title: "t", Description: "d", Category: "buraco", Severity: "urgente"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateCreateInput(&tt.input)
			if tt.wantErr {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestValidateCreateInput_DefaultsSeverity(t *testing.T) {
	input := createReportInput{Title: "t", Description: "d", Category: "denuncia"}
	assert.Empty(t, validateCreateInput(&input))
	assert.Equal(t, models.SeverityMedium, input.Severity)
}

func TestResolutionRate(t *testing.T) {
	assert.Equal(t, 0, resolutionRate(0, 0))
	assert.Equal(t, 75, resolutionRate(3, 4))
	assert.Equal(t, 100, resolutionRate(4, 4))
	assert.Equal(t, 33, resolutionRate(1, 3))
	assert.Equal(t, 67, resolutionRate(2, 3))
}

func TestBuildUpdates_PartialSemantics(t *testing.T) {
	report := &models.Report{Status: models.StatusPending}

	dept := "Obras Públicas"
	updates := buildUpdates(report, &updateReportInput{Department: &dept})
	assert.Equal(t, map[string]interface{}{"department": "Obras Públicas"}, updates)

	updates = buildUpdates(report, &updateReportInput{})
	assert.Empty(t, updates)
}

func TestBuildUpdates_ResolvedSetsTimestamp(t *testing.T) {
	report := &models.Report{Status: models.StatusInReview}
	status := models.StatusResolved

	updates := buildUpdates(report, &updateReportInput{Status: &status})
	assert.Equal(t, models.StatusResolved, updates["status"])
	resolvedAt, ok := updates["resolved_at"].(*time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), *resolvedAt, 2*time.Second)
}

func TestBuildUpdates_ReopeningClearsTimestamp(t *testing.T) {
	report := &models.Report{Status: models.StatusResolved}
	status := models.StatusInReview

	updates := buildUpdates(report, &updateReportInput{Status: &status})
	assert.Equal(t, models.StatusInReview, updates["status"])
	assert.Nil(t, updates["resolved_at"])
	assert.Contains(t, updates, "resolved_at")
}

func ownerOf(id, name string, anon bool) models.Report {
	return models.Report{UserID: id, UserName: name, IsAnonymous: anon}
}

func TestMaskAnonymousOwners_Citizen(t *testing.T) {
	reports := []models.Report{
		ownerOf("u1", "Maria Silva", true),
		ownerOf("u2", "João Souza", false),
	}

	maskAnonymousOwners(reports, &middleware.UserClaims{UserID: "u3", Role: "citizen"})

	assert.Equal(t, anonymousDisplayName, reports[0].UserName)
	assert.Empty(t, reports[0].UserID)
	assert.Equal(t, "João Souza", reports[1].UserName)
	assert.Equal(t, "u2", reports[1].UserID)
}

func TestMaskAnonymousOwners_ModeratorSeesOwner(t *testing.T) {
	for _, role := range []string{"operator", "manager", "admin"} {
		reports := []models.Report{ownerOf("u1", "Maria Silva", true)}
		maskAnonymousOwners(reports, &middleware.UserClaims{UserID: "mod", Role: role})
		assert.Equal(t, "Maria Silva", reports[0].UserName, "role %s", role)
		assert.Equal(t, "u1", reports[0].UserID, "role %s", role)
	}
}

func TestMaskAnonymousOwners_OwnerSeesOwnReport(t *testing.T) {
	reports := []models.Report{ownerOf("u1", "Maria Silva", true)}
	maskAnonymousOwners(reports, &middleware.UserClaims{UserID: "u1", Role: "citizen"})
	assert.Equal(t, "Maria Silva", reports[0].UserName)
	assert.Equal(t, "u1", reports[0].UserID)
}
