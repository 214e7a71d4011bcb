package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lexiq-backend/internal/assessment"
	"lexiq-backend/internal/metrics"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/pkg/logging"
)

type AnswerResult struct {
	QuestionID uuid.UUID `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
	Feedback   *string   `json:"feedback,omitempty"`
}

// SubmitResult confirms a batch of answers. It never includes a diagnosis.
type SubmitResult struct {
	Message string         `json:"message"`
	Saved   int            `json:"saved"`
	Correct int            `json:"correct"`
	Results []AnswerResult `json:"results"`
}

type AnswerService interface {
	// SubmitAnswers grades and stores a batch. Any invalid submission
	// rejects the whole batch and nothing is stored.
	SubmitAnswers(ctx context.Context, userID uuid.UUID, submissions []model.AnswerSubmission) (*SubmitResult, error)
}

type answerService struct {
	repos repository.Repositories
	now   func() time.Time
}

func NewAnswerService(repos repository.Repositories) AnswerService {
	return &answerService{repos: repos, now: func() time.Time { return time.Now().UTC() }}
}

type decodedSubmission struct {
	sessionID  uuid.UUID
	questionID uuid.UUID
	payload    model.AnswerPayload
}

func (s *answerService) SubmitAnswers(ctx context.Context, userID uuid.UUID, submissions []model.AnswerSubmission) (*SubmitResult, error) {
	if len(submissions) == 0 {
		return nil, validationError("answers must not be empty")
	}
	decoded := make([]decodedSubmission, len(submissions))
	for i, sub := range submissions {
		payload, err := sub.Payload()
		// an empty submission is only acceptable for multiple choice; loadKeys decides
		if err != nil && !errors.Is(err, model.ErrNoAnswerPayload) {
			return nil, newError(CodeValidation, err, "answer %d", i)
		}
		decoded[i] = decodedSubmission{sessionID: sub.SessionID, questionID: sub.QuestionID, payload: payload}
	}

	var result *SubmitResult
	err := s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		keys, err := s.loadKeys(ctx, tx, userID, decoded)
		if err != nil {
			return err
		}

		base := s.now()
		answers := make([]*model.UserAnswer, len(decoded))
		res := &SubmitResult{Message: "answers saved", Results: make([]AnswerResult, len(decoded))}
		for i, d := range decoded {
			key := keys[d.questionID]
			grade, err := assessment.GradeAnswer(key, d.payload)
			if err != nil {
				return newError(CodeValidation, err, "answer %d", i)
			}

			a := model.NewUserAnswer(d.sessionID, d.questionID, d.payload)
			a.IsCorrect = grade.Correct
			if grade.Feedback != "" {
				fb := grade.Feedback
				a.Feedback = &fb
			}
			// keeps submission order stable for latest-answer resolution
			a.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
			answers[i] = a

			res.Results[i] = AnswerResult{QuestionID: d.questionID, IsCorrect: grade.Correct, Feedback: a.Feedback}
			if grade.Correct {
				res.Correct++
			}
		}

		if err := tx.Answers().CreateAnswers(ctx, answers); err != nil {
			return internalError(err, "failed to save answers")
		}
		res.Saved = len(answers)
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, r := range result.Results {
		qt := string(decoded[i].payload.QuestionType())
		metrics.AnswersRecorded.WithLabelValues(qt, strconv.FormatBool(r.IsCorrect)).Inc()
	}
	logger.Info("user %s saved %d answers, %d correct", userID, result.Saved, result.Correct)
	return result, nil
}

// loadKeys checks every referenced session and question and returns the
// grading key of each question. Empty multiple choice submissions are
// filled in as a choice without an option.
func (s *answerService) loadKeys(ctx context.Context, tx repository.Repositories, userID uuid.UUID, decoded []decodedSubmission) (map[uuid.UUID]assessment.AnswerKey, error) {
	members := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, d := range decoded {
		if _, ok := members[d.sessionID]; ok {
			continue
		}
		session, err := tx.Sessions().GetSessionByID(ctx, d.sessionID)
		if err != nil {
			return nil, lookupError(err, "session")
		}
		if session.UserID != userID {
			return nil, newError(CodeForbidden, nil, "session %s does not belong to the current user", d.sessionID)
		}
		if session.Completed {
			return nil, newError(CodeConflict, nil, "session %s is already completed", d.sessionID)
		}
		ids, err := tx.Sessions().QuestionIDs(ctx, d.sessionID)
		if err != nil {
			return nil, internalError(err, "failed to load session questions")
		}
		set := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		members[d.sessionID] = set
	}

	var questionIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, d := range decoded {
		if !members[d.sessionID][d.questionID] {
			return nil, validationError("question %s does not belong to session %s", d.questionID, d.sessionID)
		}
		if !seen[d.questionID] {
			seen[d.questionID] = true
			questionIDs = append(questionIDs, d.questionID)
		}
	}

	questions, err := tx.Questions().GetQuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return nil, internalError(err, "failed to load questions")
	}
	keys := make(map[uuid.UUID]assessment.AnswerKey, len(questions))
	for _, q := range questions {
		keys[q.ID] = assessment.AnswerKey{Question: q}
	}
	for _, id := range questionIDs {
		if _, ok := keys[id]; !ok {
			return nil, lookupError(repository.ErrNotFound, "question")
		}
	}

	options, err := tx.Questions().OptionsFor(ctx, questionIDs)
	if err != nil {
		return nil, internalError(err, "failed to load options")
	}
	for _, o := range options {
		k := keys[o.QuestionID]
		k.Options = append(k.Options, o)
		keys[o.QuestionID] = k
	}
	items, err := tx.Questions().DragItemsFor(ctx, questionIDs)
	if err != nil {
		return nil, internalError(err, "failed to load drag items")
	}
	for _, it := range items {
		k := keys[it.QuestionID]
		k.DragItems = append(k.DragItems, it)
		keys[it.QuestionID] = k
	}

	for i := range decoded {
		d := &decoded[i]
		qt := keys[d.questionID].Question.Type
		if d.payload == nil {
			if qt != model.TypeMultipleChoice {
				return nil, newError(CodeValidation, model.ErrNoAnswerPayload, "answer %d", i)
			}
			// no option selected, graded incorrect
			d.payload = model.ChoiceAnswer{}
		}
		if d.payload.QuestionType() != qt {
			return nil, newError(CodeValidation, assessment.ErrPayloadMismatch,
				"question %s expects a %s answer", d.questionID, keys[d.questionID].Question.Type)
		}
	}
	return keys, nil
}
