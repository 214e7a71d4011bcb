package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lexiq-backend/internal/model"
)

// ErrPayloadMismatch is returned when the answer variant does not fit the
// question type.
var ErrPayloadMismatch = errors.New("answer does not match question type")

// AnswerKey is everything grading needs to know about one question.
type AnswerKey struct {
	Question  model.Question
	Options   []model.Option
	DragItems []model.DragItem
}

// Grade is the correctness of one submission plus optional feedback.
type Grade struct {
	Correct  bool
	Feedback string
}

// GradeAnswer checks payload against key. A choice naming an unknown
// option, or no option at all, is graded incorrect rather than rejected.
func GradeAnswer(key AnswerKey, payload model.AnswerPayload) (Grade, error) {
	if payload == nil {
		return Grade{}, model.ErrNoAnswerPayload
	}
	if payload.QuestionType() != key.Question.Type {
		return Grade{}, fmt.Errorf("%w: question %s expects %s, got %s",
			ErrPayloadMismatch, key.Question.ID, key.Question.Type, payload.QuestionType())
	}

	switch p := payload.(type) {
	case model.ChoiceAnswer:
		return gradeChoice(key.Options, p), nil
	case model.TextAnswer:
		return gradeText(key.Question.CorrectAnswer, p), nil
	case model.MatchAnswer:
		return gradeMatch(key.DragItems, p), nil
	}
	return Grade{}, fmt.Errorf("unsupported answer payload %T", payload)
}

func gradeChoice(options []model.Option, answer model.ChoiceAnswer) Grade {
	if answer.OptionID == uuid.Nil {
		return Grade{Feedback: "no option selected"}
	}
	for _, o := range options {
		if o.ID == answer.OptionID {
			return Grade{Correct: o.IsCorrect}
		}
	}
	return Grade{Feedback: "selected option is not part of this question"}
}

func gradeText(correct *string, answer model.TextAnswer) Grade {
	if correct == nil {
		return Grade{}
	}
	given := strings.TrimSpace(answer.Text)
	return Grade{Correct: strings.EqualFold(given, strings.TrimSpace(*correct))}
}

// gradeMatch is all-or-nothing; feedback reports how many items were placed right.
func gradeMatch(items []model.DragItem, answer model.MatchAnswer) Grade {
	if len(items) == 0 {
		return Grade{}
	}
	canonical := model.CanonicalPairs(items)
	if canonical.Equal(answer.Pairs) {
		return Grade{Correct: true}
	}
	placed := 0
	for id, key := range canonical {
		if answer.Pairs[id] == key {
			placed++
		}
	}
	return Grade{Feedback: fmt.Sprintf("%d of %d items placed correctly", placed, len(canonical))}
}
