// Package repository provides the option-based query description shared by
// the relational stores.
package repository

import "fmt"

// Option applies a modification to a Query.
type Option func(Query) Query

// Query holds conditions, ordering and a limit for store lookups.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns the query conditions.
func (q Query) Conditions() []Condition {
	result := make([]Condition, len(q.conditions))
	copy(result, q.conditions)
	return result
}

// Orders returns the query ordering.
func (q Query) Orders() []Order {
	result := make([]Order, len(q.orders))
	copy(result, q.orders)
	return result
}

// LimitValue returns the limit (0 means no limit).
func (q Query) LimitValue() int {
	return q.limit
}

// ConditionKind distinguishes how a condition is rendered.
type ConditionKind int

// ConditionKind values.
const (
	ConditionEqual ConditionKind = iota
	ConditionRaw
)

// Condition represents a single query condition.
type Condition struct {
	kind  ConditionKind
	field string
	args  []any
}

// Kind returns how the condition is rendered.
func (c Condition) Kind() ConditionKind { return c.kind }

// Field returns the column name, or the SQL fragment for raw conditions.
func (c Condition) Field() string { return c.field }

// Args returns the bound values.
func (c Condition) Args() []any {
	result := make([]any, len(c.args))
	copy(result, c.args)
	return result
}

// String returns a readable representation.
func (c Condition) String() string {
	switch c.kind {
	case ConditionRaw:
		return fmt.Sprintf("%s %v", c.field, c.args)
	default:
		return fmt.Sprintf("%s = %v", c.field, c.args[0])
	}
}

// Order is an ascending sort on one field.
type Order struct {
	field string
}

// Field returns the order field name.
func (o Order) Field() string { return o.field }

// WithCondition adds a field = value equality condition.
func WithCondition(field string, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{kind: ConditionEqual, field: field, args: []any{value}})
		return q
	}
}

// WithWhere adds a raw SQL condition with bound arguments.
func WithWhere(sql string, args ...any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{kind: ConditionRaw, field: sql, args: args})
		return q
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOrderAsc adds ascending ordering on a field.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field})
		return q
	}
}
