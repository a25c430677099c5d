package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"onspace/pkg/middleware"
	"onspace/pkg/response"
	"onspace/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollection = "status_history"

// appendStatusHistory writes one audit document per status change.
// Best-effort: the moderation update itself has already been committed.
func appendStatusHistory(entry models.StatusHistory) {
	if auditDB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := auditDB.Collection(historyCollection).InsertOne(ctx, entry); err != nil {
		log.Printf("[WARN] Failed to append status history for report %s: %v", entry.ReportID, err)
		return
	}
	log.Printf("[INFO] Status history appended - Report: %s, %s -> %s", entry.ReportID, entry.OldStatus, entry.NewStatus)
}

// listStatusHistory returns the audit trail for one report, oldest first.
// Moderator-only: the trail names who changed what.
func listStatusHistory(w http.ResponseWriter, r *http.Request, reportID string) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !middleware.IsModerator(claims.Role) {
		response.Error(w, http.StatusForbidden, "Acesso restrito a administradores")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := auditDB.Collection(historyCollection).Find(ctx, bson.M{"report_id": reportID}, opts)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch status history: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching status history")
		return
	}
	defer cursor.Close(ctx)

	entries := []models.StatusHistory{}
	if err := cursor.All(ctx, &entries); err != nil {
		log.Printf("[ERROR] Failed to decode status history: %v", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching status history")
		return
	}

	response.JSON(w, http.StatusOK, entries)
}
