package models

import (
	"time"
)

// Closed enumerations. Values follow the mobile client contract.
const (
	CategoryPothole   = "buraco"
	CategoryHazard    = "perigo"
	CategoryComplaint = "denuncia"

	SeverityLow    = "baixa"
	SeverityMedium = "media"
	SeverityHigh   = "alta"

	StatusPending  = "pendente"
	StatusInReview = "em_analise"
	StatusResolved = "resolvido"
)

func IsValidCategory(c string) bool {
	return c == CategoryPothole || c == CategoryHazard || c == CategoryComplaint
}

func IsValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusInReview || s == StatusResolved
}

// Report is a citizen-submitted civic issue. UserID is the immutable owner;
// IsAnonymous is a presentation hint only, moderators always see the owner.
type Report struct {
	ID          string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      string     `gorm:"type:uuid;index;not null" json:"userId,omitempty"`
	UserName    string     `gorm:"-" json:"userName,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"not null" json:"description"`
	Category    string     `gorm:"not null;index" json:"category"`
	Severity    string     `gorm:"default:'media'" json:"severity"`
	IsAnonymous bool       `json:"isAnonymous"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Address     string     `json:"address,omitempty"`
	Status      string     `gorm:"default:'pendente';index" json:"status"`
	Department  string     `json:"department,omitempty"`
	AdminNotes  string     `json:"adminNotes,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index:idx_reports_created_at,sort:desc" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusHistory is an append-only audit document, one per status change.
type StatusHistory struct {
	ReportID  string    `bson:"report_id" json:"reportId"`
	OldStatus string    `bson:"old_status" json:"oldStatus"`
	NewStatus string    `bson:"new_status" json:"newStatus"`
	ChangedBy string    `bson:"changed_by" json:"changedBy"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// ReportEvent is the message published to the queue for dispatching.
type ReportEvent struct {
	Type        string    `json:"type"` // new_report, status_update
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Severity    string    `json:"severity"`
	IsAnonymous bool      `json:"is_anonymous"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Status      string    `json:"status"`
	Department  string    `json:"department,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
