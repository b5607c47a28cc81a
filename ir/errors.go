package ir

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrorKind is a machine-readable rejection reason. Every
// translator failure carries exactly one of these.
type ErrorKind string

const (
	ErrUnsupportedExpression    ErrorKind = "UnsupportedExpression"
	ErrMissingFromClause        ErrorKind = "MissingFromClause"
	ErrMultipleFromRelations    ErrorKind = "MultipleFromRelations"
	ErrUnsupportedJoinType      ErrorKind = "UnsupportedJoinType"
	ErrNonEquiJoin              ErrorKind = "NonEquiJoin"
	ErrConstantInJoin           ErrorKind = "ConstantInJoin"
	ErrSelfJoinUnsupported      ErrorKind = "SelfJoinUnsupported"
	ErrUnknownRelation          ErrorKind = "UnknownRelation"
	ErrForeignColumnWithoutJoin ErrorKind = "ForeignColumnWithoutJoin"
	ErrCastOutsideTarget        ErrorKind = "CastOutsideTarget"
	ErrUnsupportedAggregate     ErrorKind = "UnsupportedAggregate"
	ErrAggregateArgumentShape   ErrorKind = "AggregateArgumentShape"
	ErrGroupByWithoutAggregate  ErrorKind = "GroupByWithoutAggregate"
	ErrGroupByMissingTarget     ErrorKind = "GroupByMissingTarget"
	ErrHavingUnsupported        ErrorKind = "HavingUnsupported"
	ErrInvalidLimit             ErrorKind = "InvalidLimit"
	ErrInvalidOffset            ErrorKind = "InvalidOffset"
	ErrUnsupportedOperator      ErrorKind = "UnsupportedOperator"
	ErrInvalidJsonPath          ErrorKind = "InvalidJsonPath"
)

// Error is the translator's only error type. Node carries the offending
// parse-tree fragment when one is available, for callers that want to print
// context (a CLI can deparse it back to SQL, for instance).
type Error struct {
	Kind    ErrorKind
	Message string
	Node    *pg_query.Node
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is makes errors.Is(err, &ir.Error{Kind: ir.ErrXxx}) work without requiring
// callers to match Message or Node.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds an *Error with a formatted message.
func NewError(kind ErrorKind, node *pg_query.Node, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Node: node}
}
