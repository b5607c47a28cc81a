// Package ir defines the Statement intermediate representation that sits
// between the SQL translator and the PostgREST renderer.
//
// Values built here are immutable once the assembler returns them; nothing
// in this package mutates a Statement after construction.
package ir

// Relation names the primary table a Statement selects from.
type Relation struct {
	Name  string
	Alias string
}

// JoinType is the PostgREST embed join flavor a relation was attached with.
type JoinType string

const (
	JoinLeft  JoinType = "left"
	JoinInner JoinType = "inner"
)

// ColumnRef names a column on a specific relation, used inside join
// qualifiers where the relation must always be explicit.
type ColumnRef struct {
	Relation string
	Column   string
}

// JoinQualifier is the single equality that ties an EmbeddedTarget to its
// parent (or an ancestor in the embed chain). Constants, non-equality
// operators and self-references are rejected before this type is built.
type JoinQualifier struct {
	Parent ColumnRef
	Child  ColumnRef
}

// JSONPathStep is one `->` or `->>` hop applied to a column.
type JSONPathStep struct {
	Arrow string // "->" or "->>"
	Key   string
}

// TargetKind discriminates the Target sum type. Every exhaustive switch over
// Target should switch on this instead of a type-assertion chain so new
// variants fail loudly at the call site instead of silently falling through.
type TargetKind int

const (
	TargetKindColumn TargetKind = iota
	TargetKindAggregate
	TargetKindEmbedded
	TargetKindStar
)

// Target is the tagged-variant projection entry: Column, Aggregate,
// Embedded or Star.
type Target interface {
	Kind() TargetKind
}

// Column is a plain or JSON-path column reference, possibly cast and
// aliased. Relation is empty when the column binds to the primary relation
// or is already scoped inside an EmbeddedTarget's Targets.
type Column struct {
	Relation string
	Name     string
	Alias    string
	Cast     string
	JSONPath []JSONPathStep
}

func (Column) Kind() TargetKind { return TargetKindColumn }

// AggregateFunction is one of the five functions PostgREST understands.
type AggregateFunction string

const (
	AggAvg   AggregateFunction = "avg"
	AggCount AggregateFunction = "count"
	AggMax   AggregateFunction = "max"
	AggMin   AggregateFunction = "min"
	AggSum   AggregateFunction = "sum"
)

// AggregateTarget wraps a single Column argument; it must not wrap another
// aggregate.
type AggregateTarget struct {
	Function   AggregateFunction
	Input      Column
	InputCast  string
	OutputCast string
	Alias      string
}

func (AggregateTarget) Kind() TargetKind { return TargetKindAggregate }

// EmbeddedTarget is a spread projection produced by a join: `...rel(cols)`.
// Targets holds the relation's own projection, which may itself contain
// further EmbeddedTarget nodes for nested joins.
type EmbeddedTarget struct {
	Relation      string
	Alias         string
	JoinType      JoinType
	JoinQualifier JoinQualifier
	Targets       []Target
	Spread        bool
}

func (*EmbeddedTarget) Kind() TargetKind { return TargetKindEmbedded }

// Star is `*`: all columns of the relation it appears under.
type Star struct{}

func (Star) Kind() TargetKind { return TargetKindStar }

// LogicalOperator combines ColumnExpression / Logical children.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// LogicalExpression is the WHERE tree: Logical{and,or} nodes over
// ColumnExpression leaves, with negation tracked per-node rather than pushed
// through via De Morgan rewriting.
type LogicalExpression interface {
	isLogicalExpression()
}

// Logical is an AND/OR combinator. Negate set means the whole group is
// wrapped in NOT, rendered as `not.and(...)` / `not.or(...)`.
type Logical struct {
	Operator LogicalOperator
	Negate   bool
	Values   []LogicalExpression
}

func (*Logical) isLogicalExpression() {}

// ColumnOperator is a PostgREST comparison/membership operator.
type ColumnOperator string

const (
	OpEq     ColumnOperator = "eq"
	OpNeq    ColumnOperator = "neq"
	OpGt     ColumnOperator = "gt"
	OpGte    ColumnOperator = "gte"
	OpLt     ColumnOperator = "lt"
	OpLte    ColumnOperator = "lte"
	OpLike   ColumnOperator = "like"
	OpILike  ColumnOperator = "ilike"
	OpMatch  ColumnOperator = "match"
	OpIMatch ColumnOperator = "imatch"
	OpIs     ColumnOperator = "is"
	OpIn     ColumnOperator = "in"
	OpFts    ColumnOperator = "fts"
	OpPlfts  ColumnOperator = "plfts"
	OpPhfts  ColumnOperator = "phfts"
	OpWfts   ColumnOperator = "wfts"
	OpCs     ColumnOperator = "cs"
	OpCd     ColumnOperator = "cd"
	OpOv     ColumnOperator = "ov"
	OpSl     ColumnOperator = "sl"
	OpSr     ColumnOperator = "sr"
	OpNxr    ColumnOperator = "nxr"
	OpNxl    ColumnOperator = "nxl"
	OpAdj    ColumnOperator = "adj"
)

// ColumnExpression is a WHERE leaf. Column is always unqualified (rooted at
// the primary relation, possibly with a JSON path) because the filter
// grammar this translator emits has no relation-qualified leaf form.
type ColumnExpression struct {
	Column   Column
	Operator ColumnOperator
	Value    interface{}
	Negate   bool
}

func (*ColumnExpression) isLogicalExpression() {}

// SortDirection is "" (unset, PostgREST default) or an explicit direction.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// NullsOrder is "" (unset) or an explicit nulls placement.
type NullsOrder string

const (
	NullsFirst NullsOrder = "first"
	NullsLast  NullsOrder = "last"
)

// Sort is one ORDER BY item. Relation is set when the column is qualified by
// a joined relation (a "sorted embed").
type Sort struct {
	Column    string
	Relation  string
	Direction SortDirection
	Nulls     NullsOrder
}

// Statement is the translator/renderer contract. Always Type "select" in
// this subset.
type Statement struct {
	Type    string
	From    Relation
	Targets []Target
	Filter  LogicalExpression
	Sorts   []Sort
	Limit   *int
	Offset  *int
}
