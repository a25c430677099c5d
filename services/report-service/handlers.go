package main

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"onspace/pkg/middleware"
	"onspace/pkg/queue"
	"onspace/pkg/response"
	"onspace/services/report-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// anonymousDisplayName replaces the owner's name on anonymous reports at
// display time. Anonymity is a presentation hint, never access control.
const anonymousDisplayName = "Anônimo"

func reportsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listReports(w, r)
	case http.MethodPost:
		createReport(w, r)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func reportDetailHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/reports/"), "/")
	if rest == "" {
		response.Error(w, http.StatusBadRequest, "Missing report ID")
		return
	}

	if ownerID := strings.TrimPrefix(rest, "user/"); ownerID != rest {
		if r.Method != http.MethodGet {
			response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		listReportsByOwner(w, r, ownerID)
		return
	}

	if id := strings.TrimSuffix(rest, "/history"); id != rest {
		if r.Method != http.MethodGet {
			response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		listStatusHistory(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		getReportByID(w, r, rest)
	case http.MethodPut:
		updateReport(w, r, rest)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type createReportInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	IsAnonymous bool     `json:"isAnonymous"`
	ImageURL    string   `json:"imageUrl"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	// Identity-mirror shim fields; the owner itself always comes from the
	// token, never from the body.
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

func validateCreateInput(input *createReportInput) string {
	if input.Title == "" || input.Description == "" || input.Category == "" {
		return "Título, descrição e categoria são obrigatórios."
	}
	if !models.IsValidCategory(input.Category) {
		return "Categoria inválida."
	}
	if input.Severity == "" {
		input.Severity = models.SeverityMedium
	}
	if !models.IsValidSeverity(input.Severity) {
		return "Gravidade inválida."
	}
	return ""
}

func createReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input createReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if msg := validateCreateInput(&input); msg != "" {
		response.Error(w, http.StatusBadRequest, msg)
		return
	}

	// Mirror the caller's identity locally so listings can attach names.
	email := input.UserEmail
	if email == "" {
		email = claims.Email
	}
	name := input.UserName
	if name == "" {
		name = claims.FullName
	}
	reporter := models.Reporter{ID: claims.UserID, Email: email, FullName: name}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "updated_at"}),
	}).Create(&reporter).Error; err != nil {
		log.Printf("[ERROR] Failed to upsert reporter: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error creating report")
		return
	}

	// Client-supplied status is ignored; every report starts pending.
	newReport := models.Report{
		UserID:      claims.UserID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		IsAnonymous: input.IsAnonymous,
		ImageURL:    input.ImageURL,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     input.Address,
		Status:      models.StatusPending,
	}

	if err := db.Create(&newReport).Error; err != nil {
		log.Printf("[ERROR] Failed to save report: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error creating report")
		return
	}

	middleware.CountReportCreated()
	log.Printf("[OK] Report saved - ID: %s, Category: %s, Anonymous: %v", newReport.ID, newReport.Category, newReport.IsAnonymous)

	newReport.UserName = name
	publishEvent(models.ReportEvent{
		Type:        "new_report",
		ID:          newReport.ID,
		Title:       newReport.Title,
		Description: newReport.Description,
		Category:    newReport.Category,
		Severity:    newReport.Severity,
		IsAnonymous: newReport.IsAnonymous,
		UserID:      newReport.UserID,
		UserName:    name,
		Status:      newReport.Status,
		CreatedAt:   newReport.CreatedAt,
	})

	response.JSON(w, http.StatusCreated, &newReport)
}

func listReports(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r)

	tx := db.Order("created_at DESC")
	if status := r.URL.Query().Get("status"); status != "" {
		tx = tx.Where("status = ?", status)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		tx = tx.Where("category = ?", category)
	}

	var reports []models.Report
	if err := tx.Find(&reports).Error; err != nil {
		log.Printf("[ERROR] Failed to fetch reports: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching reports")
		return
	}

	if err := attachOwnerNames(reports); err != nil {
		log.Printf("[WARN] Failed to attach owner names: %v", err)
	}
	maskAnonymousOwners(reports, claims)

	response.JSON(w, http.StatusOK, reports)
}

func listReportsByOwner(w http.ResponseWriter, r *http.Request, ownerID string) {
	claims, _ := middleware.ClaimsFrom(r)

	var reports []models.Report
	if err := db.Where("user_id = ?", ownerID).Order("created_at DESC").Find(&reports).Error; err != nil {
		log.Printf("[ERROR] Failed to fetch user reports: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching user reports")
		return
	}

	if err := attachOwnerNames(reports); err != nil {
		log.Printf("[WARN] Failed to attach owner names: %v", err)
	}
	// Owners see their own anonymous reports unmasked.
	maskAnonymousOwners(reports, claims)

	response.JSON(w, http.StatusOK, reports)
}

func getReportByID(w http.ResponseWriter, r *http.Request, id string) {
	claims, _ := middleware.ClaimsFrom(r)

	var report models.Report
	if err := db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(w, http.StatusNotFound, "Report not found")
			return
		}
		log.Printf("[ERROR] Failed to fetch report: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching report")
		return
	}

	reports := []models.Report{report}
	if err := attachOwnerNames(reports); err != nil {
		log.Printf("[WARN] Failed to attach owner names: %v", err)
	}
	maskAnonymousOwners(reports, claims)

	response.JSON(w, http.StatusOK, &reports[0])
}

type updateReportInput struct {
	Status     *string `json:"status"`
	Department *string `json:"department"`
	AdminNotes *string `json:"adminNotes"`
}

func updateReport(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !middleware.IsModerator(claims.Role) {
		response.Error(w, http.StatusForbidden, "Acesso restrito a administradores")
		return
	}

	var input updateReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if input.Status != nil && !models.IsValidStatus(*input.Status) {
		response.Error(w, http.StatusBadRequest, "Status inválido.")
		return
	}

	var report models.Report
	if err := db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(w, http.StatusNotFound, "Report not found")
			return
		}
		log.Printf("[ERROR] Failed to fetch report: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error updating report")
		return
	}

	updates := buildUpdates(&report, &input)
	if len(updates) == 0 {
		response.JSON(w, http.StatusOK, &report)
		return
	}

	oldStatus := report.Status
	if err := db.Model(&report).Updates(updates).Error; err != nil {
		log.Printf("[ERROR] Failed to update report: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error updating report")
		return
	}

	if input.Status != nil && *input.Status != oldStatus {
		notes := ""
		if input.AdminNotes != nil {
			notes = *input.AdminNotes
		}
		appendStatusHistory(models.StatusHistory{
			ReportID:  report.ID,
			OldStatus: oldStatus,
			NewStatus: *input.Status,
			ChangedBy: claims.UserID,
			Notes:     notes,
			CreatedAt: time.Now(),
		})

		publishEvent(models.ReportEvent{
			Type:       "status_update",
			ID:         report.ID,
			Title:      report.Title,
			Category:   report.Category,
			UserID:     report.UserID,
			Status:     report.Status,
			Department: report.Department,
			CreatedAt:  time.Now(),
		})
	}

	log.Printf("[OK] Report updated - ID: %s, Status: %s, By: %s", report.ID, report.Status, claims.UserID)
	response.JSON(w, http.StatusOK, &report)
}

// buildUpdates applies partial-update semantics: only supplied fields change.
// Status transitions are deliberately unrestricted; the audit trail records
// them instead of a state machine rejecting them.
func buildUpdates(report *models.Report, input *updateReportInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if input.Status != nil {
		updates["status"] = *input.Status
		if *input.Status == models.StatusResolved {
			now := time.Now()
			updates["resolved_at"] = &now
		} else if report.Status == models.StatusResolved {
			updates["resolved_at"] = nil
		}
	}
	if input.Department != nil {
		updates["department"] = *input.Department
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = *input.AdminNotes
	}
	return updates
}

func adminAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var total, pending, inReview, resolved int64
	if err := db.Model(&models.Report{}).Count(&total).Error; err != nil {
		log.Printf("[ERROR] Failed to count reports: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}
	db.Model(&models.Report{}).Where("status = ?", models.StatusPending).Count(&pending)
	db.Model(&models.Report{}).Where("status = ?", models.StatusInReview).Count(&inReview)
	db.Model(&models.Report{}).Where("status = ?", models.StatusResolved).Count(&resolved)

	analytics := map[string]interface{}{
		"total":          total,
		"pendente":       pending,
		"em_analise":     inReview,
		"resolvido":      resolved,
		"resolutionRate": resolutionRate(resolved, total),
	}

	response.JSON(w, http.StatusOK, analytics)
}

// resolutionRate is resolved/total as a percentage rounded to the nearest
// integer, 0 when there are no reports.
func resolutionRate(resolved, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(resolved) / float64(total) * 100))
}

// attachOwnerNames fills the transient UserName field from the local
// identity mirror.
func attachOwnerNames(reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	idSet := map[string]bool{}
	ids := []string{}
	for _, rep := range reports {
		if rep.UserID != "" && !idSet[rep.UserID] {
			idSet[rep.UserID] = true
			ids = append(ids, rep.UserID)
		}
	}

	var reporters []models.Reporter
	if err := db.Where("id IN ?", ids).Find(&reporters).Error; err != nil {
		return err
	}

	names := map[string]string{}
	for _, rep := range reporters {
		names[rep.ID] = rep.FullName
	}

	for i := range reports {
		reports[i].UserName = names[reports[i].UserID]
	}
	return nil
}

// maskAnonymousOwners hides attribution on anonymous reports for everyone
// except moderators and the owner. The row itself always keeps the owner.
func maskAnonymousOwners(reports []models.Report, claims *middleware.UserClaims) {
	if claims != nil && middleware.IsModerator(claims.Role) {
		return
	}
	callerID := ""
	if claims != nil {
		callerID = claims.UserID
	}
	for i := range reports {
		if reports[i].IsAnonymous && reports[i].UserID != callerID {
			reports[i].UserName = anonymousDisplayName
			reports[i].UserID = ""
		}
	}
}

// publishEvent is fire-and-forget: a queue outage must not fail the request.
func publishEvent(event models.ReportEvent) {
	if amqpChannel == nil {
		return
	}
	if err := queue.PublishMessage(amqpChannel, queueName, event); err != nil {
		log.Printf("[WARN] Report saved but failed to publish event: %v", err)
		return
	}
	log.Printf("[INFO] Event '%s' published to '%s'", event.Type, queueName)
}
