package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCitizen  = "citizen"
	RoleOperator = "operator"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User is the identity record. The CPF (Brazilian national ID) is stored
// AES-GCM encrypted; CPFDigest is a deterministic keyed digest used only for
// the uniqueness check.
type User struct {
	ID        string         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `json:"-"`
	FullName  string         `gorm:"not null" json:"fullName"`
	CPF       string         `gorm:"-" json:"cpf,omitempty"`
	CPFEnc    string         `json:"-"`
	CPFDigest *string        `gorm:"uniqueIndex" json:"-"`
	Role      string         `gorm:"default:'citizen'" json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
