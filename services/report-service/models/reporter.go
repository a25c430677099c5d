package models

import "time"

// Reporter mirrors the identity provider's user record locally so report
// listings can attach display names without a cross-service call. Rows are
// upserted on report submission.
type Reporter struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
