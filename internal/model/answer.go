package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TargetKey links a drag item to the drop target it belongs in.
type TargetKey string

// MatchPairs maps drag item ids to the target key they were dropped on.
type MatchPairs map[uuid.UUID]TargetKey

// Equal reports whether p and other hold exactly the same pairs.
func (p MatchPairs) Equal(other MatchPairs) bool {
	if len(p) != len(other) {
		return false
	}
	for id, key := range p {
		got, ok := other[id]
		if !ok || got != key {
			return false
		}
	}
	return true
}

// String renders the pairs deterministically, e.g. "id1=key1, id2=key2".
func (p MatchPairs) String() string {
	parts := make([]string, 0, len(p))
	for id, key := range p {
		parts = append(parts, id.String()+"="+string(key))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// ParseMatchPairs validates a raw JSON object of drag-item-id -> target-key.
func ParseMatchPairs(raw map[string]string) (MatchPairs, error) {
	pairs := make(MatchPairs, len(raw))
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("match_pairs key %q is not a valid id", k)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, fmt.Errorf("match_pairs value for %s is empty", k)
		}
		pairs[id] = TargetKey(v)
	}
	return pairs, nil
}

// AnswerPayload is the answer content of one submission. The concrete type
// decides which question type it can answer.
type AnswerPayload interface {
	QuestionType() QuestionType
	isAnswerPayload()
}

// ChoiceAnswer with a nil OptionID means no option was selected.
type ChoiceAnswer struct {
	OptionID uuid.UUID
}

type TextAnswer struct {
	Text string
}

type MatchAnswer struct {
	Pairs MatchPairs
}

func (ChoiceAnswer) QuestionType() QuestionType { return TypeMultipleChoice }
func (TextAnswer) QuestionType() QuestionType   { return TypeOpenText }
func (MatchAnswer) QuestionType() QuestionType  { return TypeDragAndDrop }

func (ChoiceAnswer) isAnswerPayload() {}
func (TextAnswer) isAnswerPayload()   {}
func (MatchAnswer) isAnswerPayload()  {}

var (
	ErrNoAnswerPayload        = errors.New("answer must set one of selected_option_id, answer_text or match_pairs")
	ErrMultipleAnswerPayloads = errors.New("answer must set only one of selected_option_id, answer_text or match_pairs")
)

// AnswerSubmission is the wire shape of a single submitted answer.
type AnswerSubmission struct {
	SessionID        uuid.UUID         `json:"session_id"`
	QuestionID       uuid.UUID         `json:"question_id"`
	SelectedOptionID *uuid.UUID        `json:"selected_option_id,omitempty"`
	AnswerText       *string           `json:"answer_text,omitempty"`
	MatchPairs       map[string]string `json:"match_pairs,omitempty"`
}

// Payload checks that exactly one answer field is populated and converts it.
func (s AnswerSubmission) Payload() (AnswerPayload, error) {
	if s.SessionID == uuid.Nil {
		return nil, errors.New("session_id is required")
	}
	if s.QuestionID == uuid.Nil {
		return nil, errors.New("question_id is required")
	}

	var payload AnswerPayload
	set := 0
	if s.SelectedOptionID != nil {
		set++
		payload = ChoiceAnswer{OptionID: *s.SelectedOptionID}
	}
	if s.AnswerText != nil {
		set++
		payload = TextAnswer{Text: *s.AnswerText}
	}
	if s.MatchPairs != nil {
		set++
		pairs, err := ParseMatchPairs(s.MatchPairs)
		if err != nil {
			return nil, err
		}
		payload = MatchAnswer{Pairs: pairs}
	}

	switch set {
	case 0:
		return nil, ErrNoAnswerPayload
	case 1:
		return payload, nil
	default:
		return nil, ErrMultipleAnswerPayloads
	}
}

// UserAnswer is one persisted submission. At most one of SelectedOptionID,
// AnswerText and MatchPairs is set, matching the question type. A multiple
// choice answer without a selection stores none of them.
type UserAnswer struct {
	ID               uuid.UUID                      `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID        uuid.UUID                      `json:"session_id" gorm:"type:uuid;not null;index"`
	QuestionID       uuid.UUID                      `json:"question_id" gorm:"type:uuid;not null;index"`
	SelectedOptionID *uuid.UUID                     `json:"selected_option_id,omitempty" gorm:"type:uuid"`
	AnswerText       *string                        `json:"answer_text,omitempty"`
	MatchPairs       datatypes.JSONType[MatchPairs] `json:"-"`
	IsCorrect        bool                           `json:"is_correct" gorm:"not null"`
	Feedback         *string                        `json:"feedback,omitempty"`
	CreatedAt        time.Time                      `json:"created_at"`
}

func (a *UserAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewUserAnswer builds an unsaved answer row carrying payload.
func NewUserAnswer(sessionID, questionID uuid.UUID, payload AnswerPayload) *UserAnswer {
	a := &UserAnswer{SessionID: sessionID, QuestionID: questionID}
	switch p := payload.(type) {
	case ChoiceAnswer:
		if p.OptionID != uuid.Nil {
			id := p.OptionID
			a.SelectedOptionID = &id
		}
	case TextAnswer:
		text := p.Text
		a.AnswerText = &text
	case MatchAnswer:
		a.MatchPairs = datatypes.NewJSONType(p.Pairs)
	}
	return a
}

// Payload reconstructs the stored answer content.
func (a *UserAnswer) Payload() AnswerPayload {
	switch {
	case a.SelectedOptionID != nil:
		return ChoiceAnswer{OptionID: *a.SelectedOptionID}
	case a.AnswerText != nil:
		return TextAnswer{Text: *a.AnswerText}
	case a.MatchPairs.Data() != nil:
		return MatchAnswer{Pairs: a.MatchPairs.Data()}
	}
	return nil
}
