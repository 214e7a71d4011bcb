package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/model"
)

func TestGenerateDiagnosticCoversEveryLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.newUser(t, "diag", model.LevelUnknown)

	test, err := f.tests.Generate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDiagnostic, test.Mode)
	assert.Len(t, test.Questions, 30)

	perLevel := map[model.EnglishLevel]int{}
	for _, q := range test.Questions {
		perLevel[q.Level]++
		switch q.Type {
		case model.TypeMultipleChoice:
			assert.NotEmpty(t, q.Options, "options are attached")
		case model.TypeDragAndDrop:
			assert.NotEmpty(t, q.DragItems)
			assert.Len(t, q.DropTargets, len(q.DragItems))
		case model.TypeOpenText:
			assert.Empty(t, q.Options)
		}
	}
	for _, l := range model.Levels {
		assert.Equal(t, 5, perLevel[l], "level %s", l)
	}

	session, err := f.store.Sessions().GetSessionByID(ctx, test.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelUnknown, session.Level)
	assert.Zero(t, session.Score)
	assert.False(t, session.Completed)

	ids, err := f.store.Sessions().QuestionIDs(ctx, test.SessionID)
	require.NoError(t, err)
	assert.Len(t, ids, 30)
}

func TestGenerateProgression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.newUser(t, "b1", model.LevelB1)
	test, err := f.tests.Generate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeProgression, test.Mode)
	assert.Equal(t, []model.EnglishLevel{model.LevelB1, model.LevelB2}, test.TargetLevels)
	// the bank holds six questions per level
	assert.Len(t, test.Questions, 12)
	for _, q := range test.Questions {
		assert.Contains(t, []model.EnglishLevel{model.LevelB1, model.LevelB2}, q.Level)
	}

	top := f.newUser(t, "c2", model.LevelC2)
	test, err = f.tests.Generate(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.EnglishLevel{model.LevelC2}, test.TargetLevels)
	assert.Len(t, test.Questions, 6)
	for _, q := range test.Questions {
		assert.Equal(t, model.LevelC2, q.Level)
	}
}

func TestGenerateProgressionRequiresLevel(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "nolevel", model.LevelUnknown)

	_, err := f.tests.GenerateProgression(context.Background(), u.ID)
	assert.Equal(t, CodeLevelNotSet, ErrorCode(err))
}

func TestGenerateUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := f.newUser(t, "unknown", model.LevelUnknown)
	_, err := f.tests.GenerateUpgrade(ctx, unknown.ID, model.LevelB1)
	assert.Equal(t, CodeLevelNotSet, ErrorCode(err))

	u := f.newUser(t, "a2", model.LevelA2)
	_, err = f.tests.GenerateUpgrade(ctx, u.ID, model.LevelA1)
	assert.Equal(t, CodeValidation, ErrorCode(err))

	test, err := f.tests.GenerateUpgrade(ctx, u.ID, model.LevelB1)
	require.NoError(t, err)
	assert.Equal(t, model.ModeUpgrade, test.Mode)
	for _, q := range test.Questions {
		assert.Equal(t, model.LevelB1, q.Level)
	}

	req, err := f.store.Upgrades().GetBySession(ctx, test.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelA2, req.FromLevel)
	assert.Equal(t, model.LevelB1, req.TargetLevel)
	assert.False(t, req.Passed)
}

func TestSelectLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.newUser(t, "picker", model.LevelUnknown)

	got, err := f.tests.SelectLevel(ctx, u.ID, model.LevelB2)
	require.NoError(t, err)
	assert.Equal(t, model.LevelB2, got.EnglishLevel)

	_, err = f.tests.SelectLevel(ctx, u.ID, model.EnglishLevel("Z1"))
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestGenerateUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.tests.Generate(context.Background(), uuid.New())
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}
