package course

import (
	"time"

	"lms/models"

	"gorm.io/gorm"
)

const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"

	IssuanceActive  = "ACTIVE"
	IssuanceRevoked = "REVOKED"
	IssuanceExpired = "EXPIRED"
)

// Certification is the certificate a course awards, with its text template
type Certification struct {
	gorm.Model
	CourseID          uint          `json:"course_id" gorm:"index;not null"`
	Title             string        `json:"title"`
	BodyTemplate      string        `json:"body_template" gorm:"type:text"`
	ValidityDays      int           `json:"validity_days" gorm:"default:0"` // 0 means never expires
	RequireAllQuizzes bool          `json:"require_all_quizzes" gorm:"default:false"`
	RequiresApproval  bool          `json:"requires_approval" gorm:"default:false"`
	IsActive          bool          `json:"is_active" gorm:"default:false"`
	Placeholders      []Placeholder `json:"placeholders,omitempty" gorm:"foreignKey:CertificationID"`
	IsDeleted         bool          `json:"-" gorm:"default:false"`
}

// Placeholder is a custom {{key}} substitution for a certification template
type Placeholder struct {
	gorm.Model
	CertificationID uint   `json:"certification_id" gorm:"uniqueIndex:idx_placeholder_key;not null"`
	Key             string `json:"key" gorm:"uniqueIndex:idx_placeholder_key;size:64;not null"`
	Value           string `json:"value"`
}

// CertificateRequest represents a student's request for a certificate that needs approval
type CertificateRequest struct {
	gorm.Model
	UserID          uint         `json:"user_id" gorm:"index;not null"`
	CourseID        uint         `json:"course_id" gorm:"index;not null"`
	CertificationID uint         `json:"certification_id" gorm:"index;not null"`
	EnrollmentID    uint         `json:"enrollment_id" gorm:"index;not null"`
	Status          string       `json:"status" gorm:"default:'PENDING'"` // PENDING, APPROVED, REJECTED
	RequestedAt     time.Time    `json:"requested_at"`
	ReviewedAt      *time.Time   `json:"reviewed_at"`
	ReviewedBy      *uint        `json:"reviewed_by"`
	RejectionReason string       `json:"rejection_reason"`
	IsDeleted       bool         `json:"-" gorm:"default:false"`
	Course          *Course      `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User            *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// CertificateIssuance is an issued certificate. Only the sha256 of its
// verification token is stored.
type CertificateIssuance struct {
	gorm.Model
	UserID            uint         `json:"user_id" gorm:"index;not null"`
	CourseID          uint         `json:"course_id" gorm:"index;not null"`
	CertificationID   uint         `json:"certification_id" gorm:"index;not null"`
	CertificateNumber string       `json:"certificate_number" gorm:"uniqueIndex;size:32;not null"`
	TokenHash         string       `json:"-" gorm:"uniqueIndex;size:64;not null"`
	RenderedBody      string       `json:"rendered_body" gorm:"type:text"`
	Status            string       `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, REVOKED, EXPIRED
	IssuedAt          time.Time    `json:"issued_at"`
	ExpiresAt         *time.Time   `json:"expires_at"`
	RevokedAt         *time.Time   `json:"revoked_at"`
	RevokedBy         *uint        `json:"revoked_by"`
	RevocationReason  string       `json:"revocation_reason"`
	Course            *Course      `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User              *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Valid reports whether the certificate is active and unexpired at t.
func (ci *CertificateIssuance) Valid(t time.Time) bool {
	if ci.Status != IssuanceActive {
		return false
	}
	return ci.ExpiresAt == nil || ci.ExpiresAt.After(t)
}
