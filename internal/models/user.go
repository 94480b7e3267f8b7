package models

import "time"

// User is an account row. Column names follow the legacy schema the mobile
// clients already depend on (nombre, telefono, tipo).
type User struct {
	BaseModel
	Name         string   `gorm:"column:nombre;not null"`
	Email        string   `gorm:"uniqueIndex;not null"`
	Phone        string   `gorm:"column:telefono"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"column:tipo;type:varchar(20);not null"`

	// IsActive gates access to protected screens. It may only become true
	// once VerificationStatus is verified (or by explicit admin action).
	IsActive bool `gorm:"default:false"`
	IsAdmin  bool `gorm:"default:false"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);default:'pending'"`
	VerificationStep   VerificationStep   `gorm:"type:varchar(20);default:'phone'"`

	PhoneVerifiedAt  *time.Time
	PhoneVerifiedVia string `gorm:"type:varchar(20)"`
	LastLoginAt      *time.Time

	// Relations
	Documents     []Document     `gorm:"foreignKey:UserID"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "accounts"
}

type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}
