package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionCategory string

const (
	CategoryGrammar    QuestionCategory = "grammar"
	CategoryVocabulary QuestionCategory = "vocabulary"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeOpenText       QuestionType = "open_text"
	TypeDragAndDrop    QuestionType = "drag_and_drop"
)

// Question is a catalog entry. Rows are written by the seeder only.
type Question struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Prompt        string           `json:"prompt" gorm:"not null"`
	Level         EnglishLevel     `json:"level" gorm:"type:varchar(16);not null;index"`
	Category      QuestionCategory `json:"category" gorm:"type:varchar(32);not null"`
	Type          QuestionType     `json:"type" gorm:"type:varchar(32);not null"`
	CorrectAnswer *string          `json:"-"`
	Options       []Option         `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	DragItems     []DragItem       `json:"drag_items,omitempty" gorm:"foreignKey:QuestionID"`
	DropTargets   []DropTarget     `json:"drop_targets,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Option struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;index"`
	Text       string    `json:"text" gorm:"not null"`
	IsCorrect  bool      `json:"-" gorm:"not null;default:false"`
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type DragItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;index"`
	Label      string    `json:"label" gorm:"not null"`
	TargetKey  TargetKey `json:"-" gorm:"type:varchar(64);not null"`
}

func (d *DragItem) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type DropTarget struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID  uuid.UUID `json:"question_id" gorm:"type:uuid;not null;index"`
	Placeholder string    `json:"placeholder" gorm:"not null"`
	TargetKey   TargetKey `json:"target_key" gorm:"type:varchar(64);not null"`
}

func (d *DropTarget) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// CanonicalPairs returns the drag-item-id -> target_key mapping that a
// fully correct drag_and_drop submission must reproduce.
func CanonicalPairs(items []DragItem) MatchPairs {
	pairs := make(MatchPairs, len(items))
	for _, it := range items {
		pairs[it.ID] = it.TargetKey
	}
	return pairs
}
