package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestMode string

const (
	ModeDiagnostic  TestMode = "diagnostic"
	ModeProgression TestMode = "progression"
	ModeUpgrade     TestMode = "upgrade"
)

// EnglishTestSession is one attempt of a generated test. Score, Completed
// and DiagnosedLevel are written when the session is evaluated.
type EnglishTestSession struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	Level          EnglishLevel      `json:"level" gorm:"type:varchar(16);not null"`
	Mode           TestMode          `json:"mode" gorm:"type:varchar(16);not null;default:'diagnostic'"`
	Score          int               `json:"score" gorm:"not null;default:0"`
	Completed      bool              `json:"completed" gorm:"not null;default:false;index"`
	DiagnosedLevel *EnglishLevel     `json:"diagnosed_level,omitempty" gorm:"type:varchar(16)"`
	Questions      []SessionQuestion `json:"-" gorm:"foreignKey:SessionID"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (s *EnglishTestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SessionQuestion records which questions were drawn for a session.
type SessionQuestion struct {
	SessionID  uuid.UUID `json:"session_id" gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;primaryKey"`
	Position   int       `json:"position" gorm:"not null"`
}

// LevelUpgradeRequest tracks an explicit attempt to move to TargetLevel.
type LevelUpgradeRequest struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	SessionID   uuid.UUID    `json:"session_id" gorm:"type:uuid;not null;uniqueIndex"`
	FromLevel   EnglishLevel `json:"from_level" gorm:"type:varchar(16);not null"`
	TargetLevel EnglishLevel `json:"target_level" gorm:"type:varchar(16);not null"`
	Passed      bool         `json:"passed" gorm:"not null;default:false"`
	Evaluated   bool         `json:"evaluated" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *LevelUpgradeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
