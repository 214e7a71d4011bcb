package query

import (
	"fmt"
	"strings"
)

// QueryBuilder assembles a parameterized SELECT. Values never appear in the
// SQL text; they are returned alongside it for the driver to bind.
type QueryBuilder struct {
	table      string
	conditions []string
	columns    []string
	values     []interface{}
	orderBy    string
	limit      int
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

func (qb *QueryBuilder) Select(columns ...string) *QueryBuilder {
	qb.columns = append(qb.columns, columns...)
	return qb
}

func (qb *QueryBuilder) From(table string) *QueryBuilder {
	qb.table = table
	return qb
}

// Where adds a condition with ? placeholders. Conditions are ANDed.
func (qb *QueryBuilder) Where(condition string, args ...interface{}) *QueryBuilder {
	qb.conditions = append(qb.conditions, condition)
	qb.values = append(qb.values, args...)
	return qb
}

// WhereIn adds "column IN (?, ?, ...)". An empty value list matches nothing.
func (qb *QueryBuilder) WhereIn(column string, values ...interface{}) *QueryBuilder {
	if len(values) == 0 {
		return qb.Where("1 = 0")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return qb.Where(fmt.Sprintf("%s IN (%s)", column, placeholders), values...)
}

// OrderByRandom orders rows uniformly at random. RANDOM() is understood by
// both postgres and sqlite.
func (qb *QueryBuilder) OrderByRandom() *QueryBuilder {
	qb.orderBy = "RANDOM()"
	return qb
}

func (qb *QueryBuilder) OrderBy(expr string) *QueryBuilder {
	qb.orderBy = expr
	return qb
}

func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	qb.limit = n
	return qb
}

func (qb *QueryBuilder) Build() (string, []interface{}) {
	var sb strings.Builder

	if len(qb.columns) > 0 {
		sb.WriteString(fmt.Sprintf("SELECT %s FROM %s", strings.Join(qb.columns, ", "), qb.table))
	} else {
		sb.WriteString(fmt.Sprintf("SELECT * FROM %s", qb.table))
	}

	if len(qb.conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(qb.conditions, " AND "))
	}
	if qb.orderBy != "" {
		sb.WriteString(" ORDER BY " + qb.orderBy)
	}

	values := append([]interface{}(nil), qb.values...)
	if qb.limit > 0 {
		sb.WriteString(" LIMIT ?")
		values = append(values, qb.limit)
	}
	return sb.String(), values
}
