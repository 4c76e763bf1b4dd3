// Package query builds parameterized SQL over the regtx record table.
// Predicates are validated against the known record fields and rendered
// through a QueryDialect, so the same filter tree serves both the SQLite
// case file and a shared PostgreSQL deployment.
package query

import (
	"fmt"
	"strings"

	"github.com/wintoolssuite/regtx/internal/model"
)

// Logic determines how multiple predicates are combined.
type Logic int

const (
	AND Logic = iota
	OR
)

// Operator represents a SQL comparison operator.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Like           Operator = "LIKE"
	NotLike        Operator = "NOT LIKE"
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
)

// validOperators is the set of allowed operators for validation.
var validOperators = map[Operator]bool{
	Equal: true, NotEqual: true, Like: true, NotLike: true,
	GreaterOrEqual: true, LessOrEqual: true,
}

// Predicate represents a single filter condition or a composite of conditions.
// Predicates use parameterized values to prevent SQL injection.
type Predicate struct {
	kind  predicateKind
	field string
	op    Operator
	value string
	left  *Predicate
	right *Predicate
	logic Logic
}

type predicateKind int

const (
	predNone predicateKind = iota
	predSimple
	predComposite
)

// Simple creates a predicate that compares a record field to a value.
// Returns nil if the field name is invalid or the operator is unrecognized.
func Simple(field string, op Operator, value string) *Predicate {
	if !isValidField(field) || !validOperators[op] {
		return nil
	}
	return &Predicate{
		kind:  predSimple,
		field: field,
		op:    op,
		value: value,
	}
}

// Combine joins multiple predicates with the given logic (AND or OR).
// Returns nil for an empty slice. Returns the single predicate if only one
// is given. Nil predicates in the slice are skipped.
func Combine(preds []*Predicate, logic Logic) *Predicate {
	filtered := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}

	result := &Predicate{
		kind:  predComposite,
		left:  filtered[0],
		right: filtered[1],
		logic: logic,
	}
	for i := 2; i < len(filtered); i++ {
		result = &Predicate{
			kind:  predComposite,
			left:  result,
			right: filtered[i],
			logic: logic,
		}
	}
	return result
}

// WhereClause returns the SQL WHERE fragment and its parameter values,
// rendered through the given dialect. paramIdx is the 1-based index of the
// next placeholder and is advanced as parameters are emitted.
func (p *Predicate) WhereClause(d QueryDialect, paramIdx *int) (string, []interface{}) {
	if p == nil {
		return "", nil
	}

	switch p.kind {
	case predSimple:
		ph := d.Placeholder(*paramIdx)
		*paramIdx++
		col := d.QuoteColumn(p.field)

		if p.op == Like || p.op == NotLike {
			return fmt.Sprintf("(%s %s %s)", col, p.op, ph),
				[]interface{}{"%" + p.value + "%"}
		}
		return fmt.Sprintf("(%s %s %s)", col, p.op, ph),
			[]interface{}{p.value}

	case predComposite:
		leftSQL, leftArgs := p.left.WhereClause(d, paramIdx)
		rightSQL, rightArgs := p.right.WhereClause(d, paramIdx)

		if leftSQL == "" && rightSQL == "" {
			return "", nil
		}
		if leftSQL == "" {
			return rightSQL, rightArgs
		}
		if rightSQL == "" {
			return leftSQL, leftArgs
		}

		logicStr := "AND"
		if p.logic == OR {
			logicStr = "OR"
		}
		return fmt.Sprintf("(%s %s %s)", leftSQL, logicStr, rightSQL),
			append(leftArgs, rightArgs...)

	default:
		return "", nil
	}
}

// Fields returns the list of field names referenced by this predicate tree.
func (p *Predicate) Fields() []string {
	if p == nil {
		return nil
	}

	switch p.kind {
	case predSimple:
		return []string{p.field}
	case predComposite:
		seen := make(map[string]bool)
		var result []string
		for _, f := range append(p.left.Fields(), p.right.Fields()...) {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
		return result
	default:
		return nil
	}
}

// Query builds a full SELECT statement from predicates, ordering, and pagination.
type Query struct {
	dialect    QueryDialect
	predicates []*Predicate
	logic      Logic
	orderBy    string
	pageSize   int
	page       int
}

// New creates a new Query with the given page size.
// Pass 0 for no pagination.
func New(pageSize int) *Query {
	return &Query{
		dialect:  DefaultDialect,
		logic:    AND,
		pageSize: pageSize,
		page:     1,
	}
}

// SetDialect switches the SQL dialect used by Build. Nil is ignored.
func (q *Query) SetDialect(d QueryDialect) {
	if d != nil {
		q.dialect = d
	}
}

// SetLogic sets how top-level predicates are combined (AND or OR).
func (q *Query) SetLogic(logic Logic) {
	q.logic = logic
}

// AddPredicate appends a predicate to the query. Nil predicates are ignored.
func (q *Query) AddPredicate(p *Predicate) {
	if p != nil {
		q.predicates = append(q.predicates, p)
	}
}

// ClearPredicates removes all predicates from the query.
func (q *Query) ClearPredicates() {
	q.predicates = nil
}

// OrderBy sets the column to sort results by.
// Pass an empty string to clear ordering.
// Returns an error if the field name is not valid.
func (q *Query) OrderBy(field string) error {
	if field == "" {
		q.orderBy = ""
		return nil
	}
	if !isValidField(field) && field != q.dialect.IDColumn() {
		return fmt.Errorf("invalid order by field: %s", field)
	}
	q.orderBy = field
	return nil
}

// SetPage sets the current page number (1-based).
func (q *Query) SetPage(page int) {
	if page >= 1 {
		q.page = page
	}
}

// PageNumber returns the current page number (1-based).
func (q *Query) PageNumber() int {
	return q.page
}

// Build generates the full SQL SELECT statement and its parameter values.
func (q *Query) Build() (string, []interface{}) {
	cols := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		cols[i] = q.dialect.QuoteColumn(f)
	}
	sql := "SELECT " + q.dialect.IDColumn() + ", " + strings.Join(cols, ", ") + " FROM regtx"

	whereSQL, args := q.whereClause()
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}

	if q.orderBy != "" {
		sql += " ORDER BY " + q.dialect.QuoteColumn(q.orderBy)
	}

	if q.pageSize > 0 {
		offset := q.pageSize * (q.page - 1)
		sql += fmt.Sprintf(" LIMIT %d OFFSET %d", q.pageSize, offset)
	}

	return sql, args
}

// BuildCount generates a COUNT query using the same predicates.
func (q *Query) BuildCount() (string, []interface{}) {
	sql := "SELECT COUNT(" + q.dialect.IDColumn() + ") FROM regtx"

	whereSQL, args := q.whereClause()
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	return sql, args
}

func (q *Query) whereClause() (string, []interface{}) {
	if len(q.predicates) == 0 {
		return "", nil
	}
	combined := Combine(q.predicates, q.logic)
	if combined == nil {
		return "", nil
	}
	paramIdx := 1
	return combined.WhereClause(q.dialect, &paramIdx)
}

// PredicateFields returns all field names referenced across all predicates.
func (q *Query) PredicateFields() []string {
	seen := make(map[string]bool)
	var result []string
	for _, p := range q.predicates {
		for _, f := range p.Fields() {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
	}
	return result
}

// isValidField checks a field name against the known record columns.
func isValidField(name string) bool {
	for _, f := range model.Fields {
		if f == name {
			return true
		}
	}
	return false
}
