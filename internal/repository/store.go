package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Repositories groups the repositories of one unit of work.
type Repositories interface {
	Users() UserRepository
	Questions() QuestionRepository
	Sessions() SessionRepository
	Answers() AnswerRepository
	Upgrades() UpgradeRepository
	Verifications() VerificationRepository

	// Transaction runs fn against repositories bound to a single database
	// transaction. The transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Repositories) error) error
}

// Store is the gorm-backed Repositories implementation.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() UserRepository                 { return &userRepository{db: s.db} }
func (s *Store) Questions() QuestionRepository         { return &questionRepository{db: s.db} }
func (s *Store) Sessions() SessionRepository           { return &sessionRepository{db: s.db} }
func (s *Store) Answers() AnswerRepository             { return &answerRepository{db: s.db} }
func (s *Store) Upgrades() UpgradeRepository           { return &upgradeRepository{db: s.db} }
func (s *Store) Verifications() VerificationRepository { return &verificationRepository{db: s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
