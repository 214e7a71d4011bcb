package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/mailer"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/pkg/logging"
)

type HistoryQuestion struct {
	QuestionID    uuid.UUID          `json:"question_id"`
	QuestionText  string             `json:"question_text"`
	Type          model.QuestionType `json:"type"`
	UserAnswer    *string            `json:"user_answer"`
	CorrectAnswer *string            `json:"correct_answer"`
	IsCorrect     bool               `json:"is_correct"`
	Feedback      *string            `json:"feedback,omitempty"`
}

type SessionHistory struct {
	SessionID      uuid.UUID           `json:"session_id"`
	Level          model.EnglishLevel  `json:"level"`
	Mode           model.TestMode      `json:"mode"`
	Score          int                 `json:"score"`
	Completed      bool                `json:"completed"`
	DiagnosedLevel *model.EnglishLevel `json:"diagnosed_level,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Questions      []HistoryQuestion   `json:"questions"`
}

type EmailChange struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ProfileService interface {
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// History returns the newest completed sessions with per-question detail.
	History(ctx context.Context, userID uuid.UUID) ([]SessionHistory, error)
	RequestEmailChange(ctx context.Context, userID uuid.UUID, email string) (*EmailChange, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, code string) (*model.User, error)
}

type profileService struct {
	repos        repository.Repositories
	mailer       mailer.Mailer
	historyLimit int
	codeTTL      time.Duration
	now          func() time.Time
}

func NewProfileService(repos repository.Repositories, m mailer.Mailer, historyLimit int, codeTTL time.Duration) ProfileService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	return &profileService{
		repos:        repos,
		mailer:       m,
		historyLimit: historyLimit,
		codeTTL:      codeTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *profileService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repos.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}

func (s *profileService) History(ctx context.Context, userID uuid.UUID) ([]SessionHistory, error) {
	sessions, err := s.repos.Sessions().ListCompletedByUser(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, internalError(err, "failed to load sessions")
	}
	history := make([]SessionHistory, 0, len(sessions))
	if len(sessions) == 0 {
		return history, nil
	}

	sessionIDs := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		sessionIDs[i] = sess.ID
	}
	answers, err := s.repos.Answers().ListBySessions(ctx, sessionIDs)
	if err != nil {
		return nil, internalError(err, "failed to load answers")
	}
	cat, err := s.loadCatalog(ctx, answers)
	if err != nil {
		return nil, err
	}

	bySession := make(map[uuid.UUID][]model.UserAnswer)
	for _, a := range answers {
		bySession[a.SessionID] = append(bySession[a.SessionID], a)
	}
	for _, sess := range sessions {
		entry := SessionHistory{
			SessionID:      sess.ID,
			Level:          sess.Level,
			Mode:           sess.Mode,
			Score:          sess.Score,
			Completed:      sess.Completed,
			DiagnosedLevel: sess.DiagnosedLevel,
			CreatedAt:      sess.CreatedAt,
			Questions:      []HistoryQuestion{},
		}
		for _, a := range bySession[sess.ID] {
			entry.Questions = append(entry.Questions, cat.describe(a))
		}
		history = append(history, entry)
	}
	return history, nil
}

// catalog is the slice of the question bank a history page refers to.
type catalog struct {
	questions map[uuid.UUID]model.Question
	options   map[uuid.UUID]model.Option
	items     map[uuid.UUID][]model.DragItem
}

func (s *profileService) loadCatalog(ctx context.Context, answers []model.UserAnswer) (*catalog, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, a := range answers {
		if !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	qs, err := s.repos.Questions().GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load questions")
	}
	options, err := s.repos.Questions().OptionsFor(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load options")
	}
	items, err := s.repos.Questions().DragItemsFor(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load drag items")
	}

	c := &catalog{
		questions: make(map[uuid.UUID]model.Question, len(qs)),
		options:   make(map[uuid.UUID]model.Option, len(options)),
		items:     make(map[uuid.UUID][]model.DragItem),
	}
	for _, q := range qs {
		c.questions[q.ID] = q
	}
	for _, o := range options {
		c.options[o.ID] = o
	}
	for _, it := range items {
		c.items[it.QuestionID] = append(c.items[it.QuestionID], it)
	}
	return c, nil
}

func (c *catalog) describe(a model.UserAnswer) HistoryQuestion {
	q := c.questions[a.QuestionID]
	h := HistoryQuestion{
		QuestionID:   a.QuestionID,
		QuestionText: q.Prompt,
		Type:         q.Type,
		IsCorrect:    a.IsCorrect,
		Feedback:     a.Feedback,
	}

	switch p := a.Payload().(type) {
	case model.ChoiceAnswer:
		if o, ok := c.options[p.OptionID]; ok && o.QuestionID == q.ID {
			h.UserAnswer = &o.Text
		}
	case model.TextAnswer:
		text := p.Text
		h.UserAnswer = &text
	case model.MatchAnswer:
		h.UserAnswer = c.renderPairs(q.ID, p.Pairs)
	}

	switch q.Type {
	case model.TypeMultipleChoice:
		for _, o := range c.options {
			if o.QuestionID == q.ID && o.IsCorrect {
				text := o.Text
				h.CorrectAnswer = &text
				break
			}
		}
	case model.TypeOpenText:
		h.CorrectAnswer = q.CorrectAnswer
	case model.TypeDragAndDrop:
		h.CorrectAnswer = c.renderPairs(q.ID, model.CanonicalPairs(c.items[q.ID]))
	}
	return h
}

// renderPairs prints pairs as "label=key" sorted by label.
func (c *catalog) renderPairs(questionID uuid.UUID, pairs model.MatchPairs) *string {
	labels := make(map[uuid.UUID]string)
	for _, it := range c.items[questionID] {
		labels[it.ID] = it.Label
	}
	parts := make([]string, 0, len(pairs))
	for id, key := range pairs {
		label, ok := labels[id]
		if !ok {
			label = id.String()
		}
		parts = append(parts, label+"="+string(key))
	}
	sort.Strings(parts)
	out := strings.Join(parts, ", ")
	return &out
}

func (s *profileService) RequestEmailChange(ctx context.Context, userID uuid.UUID, email string) (*EmailChange, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, validationError("email is not a valid address")
	}
	email = strings.ToLower(addr.Address)

	code, err := verificationCode()
	if err != nil {
		return nil, internalError(err, "failed to generate verification code")
	}
	v := &model.EmailVerification{UserID: userID, Email: email, Code: code, ExpiresAt: s.now().Add(s.codeTTL)}

	err = s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		if _, err := tx.Users().GetUserByID(ctx, userID); err != nil {
			return lookupError(err, "user")
		}
		if err := emailAvailable(ctx, tx, userID, email); err != nil {
			return err
		}
		if err := tx.Verifications().CreateVerification(ctx, v); err != nil {
			return internalError(err, "failed to store verification")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		return nil, internalError(err, "failed to send verification code")
	}
	logger.Info("verification code issued for user %s", userID)
	return &EmailChange{Message: "verification code sent", Email: email, ExpiresAt: v.ExpiresAt}, nil
}

func (s *profileService) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("code is required")
	}

	var user *model.User
	err := s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		v, err := tx.Verifications().LatestPending(ctx, userID, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(CodeNotFound, err, "no pending email verification")
			}
			return internalError(err, "failed to load verification")
		}
		if subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) != 1 {
			return validationError("invalid verification code")
		}
		if err := emailAvailable(ctx, tx, userID, v.Email); err != nil {
			return err
		}
		if err := tx.Users().UpdateEmail(ctx, userID, v.Email); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(CodeConflict, err, "email is already used by another user")
			}
			return lookupError(err, "user")
		}
		if err := tx.Verifications().Consume(ctx, v.ID); err != nil {
			return internalError(err, "failed to consume verification")
		}
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return lookupError(err, "user")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("user %s verified email", userID)
	return user, nil
}

func emailAvailable(ctx context.Context, tx repository.Repositories, userID uuid.UUID, email string) error {
	existing, err := tx.Users().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return internalError(err, "failed to look up email")
	case existing.ID != userID:
		return newError(CodeConflict, nil, "email is already used by another user")
	}
	return nil
}

// verificationCode returns six random digits.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
