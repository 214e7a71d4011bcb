package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/assessment"
	"lexiq-backend/internal/db/dbtest"
	"lexiq-backend/internal/mailer"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/internal/seed"
	"lexiq-backend/utilities"
)

type fixture struct {
	store     *repository.Store
	bus       *utilities.EventBus
	sender    *mailer.MemorySender
	tests     EnglishTestService
	answers   AnswerService
	diagnosis DiagnosisService
	profile   ProfileService
	progress  ProgressService
	auth      AuthService
	jwt       *utilities.JWTManager
	blacklist TokenBlacklist
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewStore(dbtest.Open(t))
	_, err := seed.Seed(context.Background(), store, false)
	require.NoError(t, err)

	cfg := assessment.DefaultConfig()
	bus := utilities.NewEventBus()
	sender := &mailer.MemorySender{}
	jwt := utilities.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	blacklist := NewMemoryTokenBlacklist()
	profile := NewProfileService(store, mailer.NewDirectMailer(sender, 15), 10, 15*time.Minute)

	return &fixture{
		store:     store,
		bus:       bus,
		sender:    sender,
		tests:     NewEnglishTestService(store, cfg, bus),
		answers:   NewAnswerService(store),
		diagnosis: NewDiagnosisService(store, cfg, bus),
		profile:   profile,
		progress:  NewProgressService(store),
		auth:      NewAuthService(store, jwt, blacklist, bus),
		jwt:       jwt,
		blacklist: blacklist,
	}
}

func (f *fixture) newUser(t *testing.T, name string, level model.EnglishLevel) *model.User {
	t.Helper()
	u := &model.User{Username: &name, HashedPassword: "x", EnglishLevel: level}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) level(t *testing.T, userID uuid.UUID) model.EnglishLevel {
	t.Helper()
	u, err := f.store.Users().GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	return u.EnglishLevel
}

// answerFor builds a submission for q that is right or wrong on purpose.
func answerFor(t *testing.T, sessionID uuid.UUID, q model.Question, right bool) model.AnswerSubmission {
	t.Helper()
	sub := model.AnswerSubmission{SessionID: sessionID, QuestionID: q.ID}
	switch q.Type {
	case model.TypeMultipleChoice:
		for _, o := range q.Options {
			if o.IsCorrect == right {
				id := o.ID
				sub.SelectedOptionID = &id
				break
			}
		}
		require.NotNil(t, sub.SelectedOptionID)
	case model.TypeOpenText:
		text := "definitely wrong"
		if right {
			text = *q.CorrectAnswer
		}
		sub.AnswerText = &text
	case model.TypeDragAndDrop:
		sub.MatchPairs = map[string]string{}
		for _, it := range q.DragItems {
			key := string(it.TargetKey)
			if !right {
				key = "nowhere"
			}
			sub.MatchPairs[it.ID.String()] = key
		}
	}
	return sub
}

// answerTest answers every question of test, correct when right returns true.
func (f *fixture) answerTest(t *testing.T, userID uuid.UUID, test *GeneratedTest, right func(model.Question) bool) *SubmitResult {
	t.Helper()
	subs := make([]model.AnswerSubmission, 0, len(test.Questions))
	for _, q := range test.Questions {
		subs = append(subs, answerFor(t, test.SessionID, q, right(q)))
	}
	res, err := f.answers.SubmitAnswers(context.Background(), userID, subs)
	require.NoError(t, err)
	return res
}

func always(model.Question) bool { return true }
func never(model.Question) bool  { return false }
