package shared

import "strconv"

// FilterOptions controls how optional predicates combine in a search filter.
// Exact switches string fields between case-insensitive equality and substring
// matching. Conjunction switches the combination between AND and OR. IDs, when
// present, is always ANDed against the rest as a hard primary-key scope.
type FilterOptions struct {
	Exact       bool
	Conjunction bool
	IDs         []int64
}

// PredicateBuilder assembles a WHERE clause from optional predicates.
// Predicates with a nil or empty value are excluded entirely; with zero
// predicates the built clause matches every row, subject only to the id scope.
// Placeholders are numbered from startArg so callers can prepend their own.
type PredicateBuilder struct {
	opts    FilterOptions
	next    int
	clauses []string
	args    []any
}

// NewPredicateBuilder constructs a builder whose first placeholder is $startArg.
func NewPredicateBuilder(opts FilterOptions, startArg int) *PredicateBuilder {
	if startArg < 1 {
		startArg = 1
	}
	return &PredicateBuilder{opts: opts, next: startArg}
}

func (b *PredicateBuilder) placeholder() string {
	p := "$" + strconv.Itoa(b.next)
	b.next++
	return p
}

// EqInt64 adds an equality predicate when v is non-nil.
func (b *PredicateBuilder) EqInt64(column string, v *int64) *PredicateBuilder {
	if v == nil {
		return b
	}
	b.clauses = append(b.clauses, column+" = "+b.placeholder())
	b.args = append(b.args, *v)
	return b
}

// EqBool adds an equality predicate when v is non-nil.
func (b *PredicateBuilder) EqBool(column string, v *bool) *PredicateBuilder {
	if v == nil {
		return b
	}
	b.clauses = append(b.clauses, column+" = "+b.placeholder())
	b.args = append(b.args, *v)
	return b
}

// MatchString adds a string predicate when v is non-empty. Exact filters
// compare case-insensitively; partial filters match any substring.
func (b *PredicateBuilder) MatchString(column string, v string) *PredicateBuilder {
	if v == "" {
		return b
	}
	if b.opts.Exact {
		b.clauses = append(b.clauses, "LOWER("+column+") = LOWER("+b.placeholder()+")")
		b.args = append(b.args, v)
	} else {
		b.clauses = append(b.clauses, column+" ILIKE "+b.placeholder())
		b.args = append(b.args, "%"+v+"%")
	}
	return b
}

// HasPredicates reports whether any optional predicate was supplied.
func (b *PredicateBuilder) HasPredicates() bool {
	return len(b.clauses) > 0
}

// Build renders the accumulated predicates into a SQL fragment plus the
// matching argument slice. The fragment is empty when nothing constrains
// the query.
func (b *PredicateBuilder) Build() (string, []any) {
	operator := " OR "
	if b.opts.Conjunction {
		operator = " AND "
	}

	var combined string
	for i, clause := range b.clauses {
		if i > 0 {
			combined += operator
		}
		combined += clause
	}
	args := append([]any(nil), b.args...)

	if len(b.opts.IDs) > 0 {
		scope := "id = ANY(" + b.placeholder() + ")"
		args = append(args, b.opts.IDs)
		if combined == "" {
			return scope, args
		}
		return "(" + combined + ") AND " + scope, args
	}
	return combined, args
}
