package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/db/dbtest"
	"lexiq-backend/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbtest.Open(t))
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, s *Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: strPtr(name), HashedPassword: "x"}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func createChoiceQuestion(t *testing.T, s *Store, level model.EnglishLevel) *model.Question {
	t.Helper()
	q := &model.Question{
		Prompt:   "She ___ to school every day.",
		Level:    level,
		Category: model.CategoryGrammar,
		Type:     model.TypeMultipleChoice,
		Options: []model.Option{
			{Text: "go"},
			{Text: "goes", IsCorrect: true},
		},
	}
	require.NoError(t, s.Questions().CreateQuestion(context.Background(), q))
	return q
}

func TestUserRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice")

	assert.Equal(t, model.LevelUnknown, u.EnglishLevel)

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.Users().UpdateEnglishLevel(ctx, u.ID, model.LevelB2))
	require.NoError(t, s.Users().UpdateEmail(ctx, u.ID, "alice@example.com"))

	got, err = s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.LevelB2, got.EnglishLevel)

	_, err = s.Users().GetUserByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, s.Users().UpdateEnglishLevel(ctx, uuid.New(), model.LevelA1), ErrNotFound)
}

func TestRandomByLevels(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		createChoiceQuestion(t, s, model.LevelA1)
	}
	createChoiceQuestion(t, s, model.LevelB1)

	got, err := s.Questions().RandomByLevels(ctx, []model.EnglishLevel{model.LevelA1}, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, q := range got {
		assert.Equal(t, model.LevelA1, q.Level)
	}

	got, err = s.Questions().RandomByLevels(ctx, []model.EnglishLevel{model.LevelA1, model.LevelB1}, 50)
	require.NoError(t, err)
	assert.Len(t, got, 5, "fewer matches than requested returns all matches")

	got, err = s.Questions().RandomByLevels(ctx, []model.EnglishLevel{model.LevelC2}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	counts, err := s.Questions().CountByLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts[model.LevelA1])
	assert.Equal(t, int64(1), counts[model.LevelB1])
}

func TestQuestionChildren(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	q := createChoiceQuestion(t, s, model.LevelA2)

	options, err := s.Questions().OptionsFor(ctx, []uuid.UUID{q.ID})
	require.NoError(t, err)
	assert.Len(t, options, 2)

	for _, opt := range options {
		assert.Equal(t, q.ID, opt.QuestionID)
		assert.Equal(t, opt.ID == q.Options[1].ID, opt.IsCorrect)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "bob")
	q1 := createChoiceQuestion(t, s, model.LevelA1)
	q2 := createChoiceQuestion(t, s, model.LevelA1)

	session := &model.EnglishTestSession{UserID: u.ID, Level: model.LevelA1, Mode: model.ModeDiagnostic}
	require.NoError(t, s.Sessions().CreateSession(ctx, session))
	require.NoError(t, s.Sessions().AddQuestions(ctx, session.ID, []uuid.UUID{q2.ID, q1.ID}))

	ids, err := s.Sessions().QuestionIDs(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q2.ID, q1.ID}, ids)

	list, err := s.Sessions().ListCompletedByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Sessions().CompleteSession(ctx, session.ID, 2, model.LevelA2))
	got, err := s.Sessions().GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 2, got.Score)
	require.NotNil(t, got.DiagnosedLevel)
	assert.Equal(t, model.LevelA2, *got.DiagnosedLevel)

	first, err := s.Sessions().FirstCompletedByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, first.ID)

	assert.ErrorIs(t, s.Sessions().CompleteSession(ctx, uuid.New(), 0, model.LevelA1), ErrNotFound)
}

func TestListCompletedNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "carol")
	base := time.Now().UTC()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		session := &model.EnglishTestSession{
			UserID:    u.ID,
			Level:     model.LevelA1,
			Mode:      model.ModeDiagnostic,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Sessions().CreateSession(ctx, session))
		require.NoError(t, s.Sessions().CompleteSession(ctx, session.ID, i, model.LevelA1))
		ids = append(ids, session.ID)
	}

	list, err := s.Sessions().ListCompletedByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestAnswersAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "dave")
	q := createChoiceQuestion(t, s, model.LevelA1)
	session := &model.EnglishTestSession{UserID: u.ID, Level: model.LevelA1, Mode: model.ModeDiagnostic}
	require.NoError(t, s.Sessions().CreateSession(ctx, session))

	now := time.Now().UTC()
	wrong := model.NewUserAnswer(session.ID, q.ID, model.ChoiceAnswer{OptionID: q.Options[0].ID})
	wrong.CreatedAt = now
	right := model.NewUserAnswer(session.ID, q.ID, model.ChoiceAnswer{OptionID: q.Options[1].ID})
	right.IsCorrect = true
	right.CreatedAt = now.Add(time.Microsecond)
	require.NoError(t, s.Answers().CreateAnswers(ctx, []*model.UserAnswer{wrong, right}))

	answers, err := s.Answers().ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, wrong.ID, answers[0].ID)
	assert.Equal(t, model.ChoiceAnswer{OptionID: q.Options[1].ID}, answers[1].Payload())

	total, correct, err := s.Answers().StatsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), correct)
}

func TestMatchAnswerPersists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sessionID, questionID, itemID := uuid.New(), uuid.New(), uuid.New()

	a := model.NewUserAnswer(sessionID, questionID, model.MatchAnswer{Pairs: model.MatchPairs{itemID: "past"}})
	require.NoError(t, s.Answers().CreateAnswers(ctx, []*model.UserAnswer{a}))

	answers, err := s.Answers().ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.MatchAnswer{Pairs: model.MatchPairs{itemID: "past"}}, answers[0].Payload())
}

func TestUpgradeRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	req := &model.LevelUpgradeRequest{UserID: uuid.New(), SessionID: uuid.New(), FromLevel: model.LevelA2, TargetLevel: model.LevelB1}
	require.NoError(t, s.Upgrades().CreateUpgrade(ctx, req))

	got, err := s.Upgrades().GetBySession(ctx, req.SessionID)
	require.NoError(t, err)
	assert.False(t, got.Evaluated)

	require.NoError(t, s.Upgrades().MarkEvaluated(ctx, req.ID, true))
	got, err = s.Upgrades().GetBySession(ctx, req.SessionID)
	require.NoError(t, err)
	assert.True(t, got.Evaluated)
	assert.True(t, got.Passed)

	_, err = s.Upgrades().GetBySession(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerificationRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	expired := &model.EmailVerification{UserID: userID, Email: "old@example.com", Code: "111111", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.Verifications().CreateVerification(ctx, expired))
	_, err := s.Verifications().LatestPending(ctx, userID, now)
	assert.ErrorIs(t, err, ErrNotFound)

	v := &model.EmailVerification{UserID: userID, Email: "new@example.com", Code: "222222", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Verifications().CreateVerification(ctx, v))
	got, err := s.Verifications().LatestPending(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)

	require.NoError(t, s.Verifications().Consume(ctx, v.ID))
	assert.ErrorIs(t, s.Verifications().Consume(ctx, v.ID), ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Repositories) error {
		u := &model.User{Username: strPtr("eve"), HashedPassword: "x"}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByUsername(ctx, "eve")
	assert.ErrorIs(t, err, ErrNotFound)
}
