package script

// The AST is pure data. Statement and expression variants are closed sum
// types sealed with unexported marker methods, so the interpreter's executor
// can switch exhaustively and a new variant is a compile-time-visible change
// for every consumer.

// Script is the root node: an ordered sequence of event blocks.
type Script struct {
	Blocks []*EventBlock
}

// EventBlock groups the statements run when the named event fires. Event
// names are uninterpreted and matched case-sensitively; an event name no
// host ever fires is legal and simply never runs.
type EventBlock struct {
	Event      string
	Statements []Stmt
}

// Stmt is the closed statement union.
type Stmt interface {
	stmt()
}

// Assign stores the value of an expression in the interpreter's variable
// store under Name.
type Assign struct {
	Name  string
	Value Expr
}

// If executes Then or Else exclusively, depending on Cond.
type If struct {
	Cond *Condition
	Then []Stmt
	Else []Stmt
}

// Give hands Qty of Item to Target.
type Give struct {
	Target Expr
	Item   Expr
	Qty    Expr
}

// Warp moves Target to (X, Y) on Map.
type Warp struct {
	Target Expr
	Map    Expr
	X      Expr
	Y      Expr
}

// Emit broadcasts Message on Channel.
type Emit struct {
	Channel Expr
	Message Expr
}

// Wait schedules a deferred entry after Duration seconds. It does not
// suspend the handler: the following statement runs immediately.
type Wait struct {
	Duration Expr
}

// Embedded is the escape hatch: an opaque region of host code captured
// verbatim and executed by the sandbox, not by this grammar.
type Embedded struct {
	Source string
}

func (*Assign) stmt()   {}
func (*If) stmt()       {}
func (*Give) stmt()     {}
func (*Warp) stmt()     {}
func (*Emit) stmt()     {}
func (*Wait) stmt()     {}
func (*Embedded) stmt() {}

// Expr is the closed expression union.
type Expr interface {
	expr()
}

type StringLit struct {
	Value string
}

type NumberLit struct {
	Value float64
}

type BoolLit struct {
	Value bool
}

// VarRef is a '$'-prefixed identifier, resolved against the interpreter's
// variable store. Name keeps the '$' prefix stripped.
type VarRef struct {
	Name string
}

// PathRef is a bare identifier or dotted path, resolved by successive
// property lookups starting from the firing context.
type PathRef struct {
	Parts []string
}

func (*StringLit) expr() {}
func (*NumberLit) expr() {}
func (*BoolLit) expr()   {}
func (*VarRef) expr()    {}
func (*PathRef) expr()   {}

// Condition is the single binary comparison allowed inside 'if'.
type Condition struct {
	Left  Expr
	Op    TokenType // EQ, NEQ, LESS, LESS_EQ, GREATER or GREATER_EQ
	Right Expr
}
