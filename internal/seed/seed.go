// Package seed loads the built-in question catalog into the question bank.
package seed

import (
	"context"
	"errors"
	"fmt"

	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/pkg/logging"
)

type choice struct {
	text    string
	correct bool
}

type pair struct {
	label       string
	placeholder string
	key         model.TargetKey
}

// item is one catalog entry before it becomes a model.Question.
type item struct {
	prompt   string
	level    model.EnglishLevel
	category model.QuestionCategory
	choices  []choice
	answer   string
	pairs    []pair
}

func (it item) questionType() model.QuestionType {
	switch {
	case len(it.choices) > 0:
		return model.TypeMultipleChoice
	case len(it.pairs) > 0:
		return model.TypeDragAndDrop
	}
	return model.TypeOpenText
}

// Question converts the entry and checks its invariants: exactly one
// correct option, a non-empty open text answer, and drag items and drop
// targets whose keys match one to one.
func (it item) Question() (*model.Question, error) {
	q := &model.Question{
		Prompt:   it.prompt,
		Level:    it.level,
		Category: it.category,
		Type:     it.questionType(),
	}
	if !it.level.Known() {
		return nil, fmt.Errorf("question %q: invalid level %q", it.prompt, it.level)
	}

	switch q.Type {
	case model.TypeMultipleChoice:
		correct := 0
		for _, c := range it.choices {
			if c.correct {
				correct++
			}
			q.Options = append(q.Options, model.Option{Text: c.text, IsCorrect: c.correct})
		}
		if correct != 1 {
			return nil, fmt.Errorf("question %q: want exactly one correct option, got %d", it.prompt, correct)
		}
	case model.TypeOpenText:
		if it.answer == "" {
			return nil, fmt.Errorf("question %q: missing correct answer", it.prompt)
		}
		answer := it.answer
		q.CorrectAnswer = &answer
	case model.TypeDragAndDrop:
		keys := make(map[model.TargetKey]bool, len(it.pairs))
		for _, p := range it.pairs {
			if keys[p.key] {
				return nil, fmt.Errorf("question %q: duplicate target key %q", it.prompt, p.key)
			}
			keys[p.key] = true
			q.DragItems = append(q.DragItems, model.DragItem{Label: p.label, TargetKey: p.key})
			q.DropTargets = append(q.DropTargets, model.DropTarget{Placeholder: p.placeholder, TargetKey: p.key})
		}
	}
	return q, nil
}

// Questions builds and validates the whole catalog.
func Questions() ([]*model.Question, error) {
	out := make([]*model.Question, 0, len(catalog))
	var errs []error
	for _, it := range catalog {
		q, err := it.Question()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, q)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Seed inserts the catalog unless the bank already has questions. It
// returns the number of inserted questions.
func Seed(ctx context.Context, repos repository.Repositories, force bool) (int, error) {
	counts, err := repos.Questions().CountByLevel(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	var existing int64
	for _, n := range counts {
		existing += n
	}
	if existing > 0 && !force {
		logger.Info("question bank already has %d questions, skipping seed", existing)
		return 0, nil
	}

	questions, err := Questions()
	if err != nil {
		return 0, err
	}
	err = repos.Transaction(ctx, func(tx repository.Repositories) error {
		for _, q := range questions {
			if err := tx.Questions().CreateQuestion(ctx, q); err != nil {
				return fmt.Errorf("insert %q: %w", q.Prompt, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("seeded %d questions", len(questions))
	return len(questions), nil
}
