package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lexiq-backend/internal/db/query"
)

// QueryExecutor runs the small read-only queries used by operational
// endpoints.
type QueryExecutor struct {
	DB *gorm.DB
}

// NewQueryExecutor creates a new instance of QueryExecutor.
func NewQueryExecutor(db *gorm.DB) *QueryExecutor {
	return &QueryExecutor{DB: db}
}

// Ping checks that the database answers.
func (qe *QueryExecutor) Ping(ctx context.Context) error {
	sqlDB, err := qe.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Count returns the number of rows in table.
func (qe *QueryExecutor) Count(ctx context.Context, table string) (int64, error) {
	sql, args := query.NewQueryBuilder().Select("COUNT(*)").From(table).Build()
	var count int64
	if err := qe.DB.WithContext(ctx).Raw(sql, args...).Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// Health pings the database and reports the size of the question bank.
func (qe *QueryExecutor) Health(ctx context.Context) (map[string]interface{}, error) {
	if err := qe.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	questions, err := qe.Count(ctx, "questions")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"database": "up", "questions": questions}, nil
}
