package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Username       *string      `json:"username" gorm:"uniqueIndex"`
	Email          *string      `json:"email" gorm:"uniqueIndex"`
	HashedPassword string       `json:"-" gorm:"not null"`
	EnglishLevel   EnglishLevel `json:"english_level" gorm:"type:varchar(16);not null;default:'unknown'"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.EnglishLevel == "" {
		u.EnglishLevel = LevelUnknown
	}
	return nil
}

// DisplayName prefers the username and falls back to the email.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.Email != nil {
		return *u.Email
	}
	return u.ID.String()
}

// EmailVerification holds a pending email change until the mailed code is confirmed.
type EmailVerification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Email     string    `json:"email" gorm:"not null"`
	Code      string    `json:"-" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// AllModels is the migration set.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&EmailVerification{},
		&Question{},
		&Option{},
		&DragItem{},
		&DropTarget{},
		&EnglishTestSession{},
		&SessionQuestion{},
		&UserAnswer{},
		&LevelUpgradeRequest{},
	}
}
