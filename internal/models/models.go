package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the single-tenant deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Generated on first start (64 hex chars)
}

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a local account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role" gorm:"type:varchar(10);not null;default:user"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Invitation lets an admin pre-authorize a registration
type Invitation struct {
	BaseModel
	Email       string     `json:"email" gorm:"not null;index"`
	Token       string     `json:"token" gorm:"unique;not null"`
	InvitedByID string     `json:"invited_by_id" gorm:"not null"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt      *time.Time `json:"used_at"`
}

// Usable reports whether the invitation can still be redeemed at now
func (i *Invitation) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}

// Project statuses
const (
	ProjectActive    = "active"
	ProjectInactive  = "inactive"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// ProjectStatuses lists every valid project status
var ProjectStatuses = []string{ProjectActive, ProjectInactive, ProjectCompleted, ProjectArchived}

// Project groups trials owned by one user
type Project struct {
	BaseModel
	Name        string    `json:"name" gorm:"not null;unique"`
	Description string    `json:"description" gorm:"type:text"`
	Status      string    `json:"status" gorm:"type:varchar(10);not null;default:active"`
	OwnerID     string    `json:"owner_id" gorm:"not null;index"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Trials    []Trial    `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Schemas   []Schema   `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Documents []Document `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Schema is an extraction schema defined for a project's documents
type Schema struct {
	BaseModel
	ProjectID  string    `json:"project_id" gorm:"not null;index"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Definition string    `json:"-" gorm:"type:text;not null"` // JSON object
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Document is a source text uploaded to a project
type Document struct {
	BaseModel
	ProjectID string    `json:"project_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Text      string    `json:"-" gorm:"type:text;not null"`
	Metadata  string    `json:"-" gorm:"type:text"` // JSON object, empty when unset
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Trial statuses
const (
	TrialPending   = "pending"
	TrialRunning   = "running"
	TrialCompleted = "completed"
	TrialFailed    = "failed"
)

// Trial is one evaluation run within a project, executed by the worker
type Trial struct {
	BaseModel
	ProjectID   string     `json:"project_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Status      string     `json:"status" gorm:"type:varchar(10);not null;default:pending"`
	Progress    float64    `json:"progress" gorm:"not null;default:0"` // percent
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Finished reports whether the trial reached a terminal status
func (t *Trial) Finished() bool {
	return t.Status == TrialCompleted || t.Status == TrialFailed
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &Invitation{}, &Project{}, &Trial{}, &Schema{}, &Document{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
