package syntax

import (
	"fmt"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// Kind tags the variant of a syntax node.
type Kind int

// Node kinds.
const (
	KindWord Kind = iota
	KindQuotedIdent
	KindLiteral
	KindNumber
	KindParam
	KindOperator
	KindPunct
	KindComment
	KindError
	KindQualifiedName
	KindFunctionCall
	KindParens
	KindBrackets
	KindList
	KindTypeCast
	KindCase
	KindLabel
	KindPhrase
	KindFromItem
	KindJoin
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindValues
	KindCreateFunction
	KindCreateTable
	KindDo
	KindBody
	KindBlock
	KindIf
	KindLoop
	KindStatement
)

var kindNames = [...]string{
	KindWord:           "Word",
	KindQuotedIdent:    "QuotedIdent",
	KindLiteral:        "Literal",
	KindNumber:         "Number",
	KindParam:          "Param",
	KindOperator:       "Operator",
	KindPunct:          "Punct",
	KindComment:        "Comment",
	KindError:          "Error",
	KindQualifiedName:  "QualifiedName",
	KindFunctionCall:   "FunctionCall",
	KindParens:         "Parens",
	KindBrackets:       "Brackets",
	KindList:           "List",
	KindTypeCast:       "TypeCast",
	KindCase:           "Case",
	KindLabel:          "Label",
	KindPhrase:         "Phrase",
	KindFromItem:       "FromItem",
	KindJoin:           "Join",
	KindSelect:         "Select",
	KindInsert:         "Insert",
	KindUpdate:         "Update",
	KindDelete:         "Delete",
	KindValues:         "Values",
	KindCreateFunction: "CreateFunction",
	KindCreateTable:    "CreateTable",
	KindDo:             "Do",
	KindBody:           "Body",
	KindBlock:          "Block",
	KindIf:             "If",
	KindLoop:           "Loop",
	KindStatement:      "Statement",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is implemented by every syntax node.
type Node interface {
	Kind() Kind
	Pos() token.Position
	node()
}

// ---------- Leaves ----------

// WordRole classifies an unquoted word for letter-case normalization.
type WordRole int

// Word roles.
const (
	RoleIdentifier WordRole = iota
	RoleKeyword
	RoleFunction
)

// Word is an unquoted identifier or keyword.
type Word struct {
	Tok  token.Token
	Role WordRole
}

// QuotedIdent is a double-quoted identifier.
type QuotedIdent struct{ Tok token.Token }

// Literal is a string literal in any quoting style.
type Literal struct{ Tok token.Token }

// Number is a numeric literal.
type Number struct{ Tok token.Token }

// Param is a positional parameter such as $1.
type Param struct{ Tok token.Token }

// Operator is an operator token.
type Operator struct{ Tok token.Token }

// Punct is punctuation outside the constructs that own it: a comma in a
// plain phrase, a dot after a parenthesized expression, a stray bracket.
type Punct struct{ Tok token.Token }

// Comment is a line or block comment.
type Comment struct {
	Tok token.Token

	// OwnLine is set when the comment started its own source line.
	OwnLine bool

	// BlankBefore counts empty source lines right before the comment.
	BlankBefore int
}

// Text returns the comment as written.
func (c *Comment) Text() string { return c.Tok.Literal }

// EndsLine reports whether nothing may follow the comment on its line.
func (c *Comment) EndsLine() bool { return token.EndsLine(c.Tok) }

// Error wraps a token the scanner flagged as malformed. It renders unchanged.
type Error struct{ Tok token.Token }

func (n *Word) Kind() Kind        { return KindWord }
func (n *QuotedIdent) Kind() Kind { return KindQuotedIdent }
func (n *Literal) Kind() Kind     { return KindLiteral }
func (n *Number) Kind() Kind      { return KindNumber }
func (n *Param) Kind() Kind       { return KindParam }
func (n *Operator) Kind() Kind    { return KindOperator }
func (n *Punct) Kind() Kind       { return KindPunct }
func (n *Comment) Kind() Kind     { return KindComment }
func (n *Error) Kind() Kind       { return KindError }

func (n *Word) Pos() token.Position        { return n.Tok.Pos }
func (n *QuotedIdent) Pos() token.Position { return n.Tok.Pos }
func (n *Literal) Pos() token.Position     { return n.Tok.Pos }
func (n *Number) Pos() token.Position      { return n.Tok.Pos }
func (n *Param) Pos() token.Position       { return n.Tok.Pos }
func (n *Operator) Pos() token.Position    { return n.Tok.Pos }
func (n *Punct) Pos() token.Position       { return n.Tok.Pos }
func (n *Comment) Pos() token.Position     { return n.Tok.Pos }
func (n *Error) Pos() token.Position       { return n.Tok.Pos }

func (*Word) node()        {}
func (*QuotedIdent) node() {}
func (*Literal) node()     {}
func (*Number) node()      {}
func (*Param) node()       {}
func (*Operator) node()    {}
func (*Punct) node()       {}
func (*Comment) node()     {}
func (*Error) node()       {}

// ---------- Expressions ----------

// QualifiedName is a dotted name: schema.table.column, t.*.
type QualifiedName struct {
	Parts []Node
}

// FunctionCall is a name immediately followed by a parenthesized argument list.
type FunctionCall struct {
	Name Node
	Args *Parens
}

// Parens is a parenthesized group. Body is nil for (), a *List when the
// group holds commas, otherwise a single node.
type Parens struct {
	Open  token.Token
	Body  Node
	Close *token.Token // nil when the input ended before the closing paren
}

// Brackets is an array subscript or constructor: [1], [1:2], ARRAY[...].
type Brackets struct {
	Open  token.Token
	Body  Node
	Close *token.Token
}

// List is a comma-separated list. Role selects the layout options.
type List struct {
	Role  core.ListRole
	Items []*ListItem

	// After holds own-line comments following the last item.
	After []*Comment
}

// ListItem is one element of a List with the comments attached to it.
type ListItem struct {
	Leading  []*Comment
	Node     Node
	Trailing *Comment // same-line comment after the item or its comma
}

// TypeCast is a :: cast suffix. It binds to the node before it.
type TypeCast struct {
	Op   token.Token
	Type []Node
}

// Case is a CASE expression, or a CASE statement in procedural code.
type Case struct {
	Case      *Word
	Operand   *Phrase // nil for searched CASE
	Arms      []*When
	Else      *Else
	End       *Word
	EndSuffix *Word // CASE in END CASE
	Statement bool
}

// When is one WHEN arm. Expression arms carry Result, statement arms and
// exception handlers carry Stmts.
type When struct {
	Leading []*Comment // own-line comments before an exception handler
	When    *Word
	Cond    *Phrase
	Then    *Word
	Result  *Phrase
	Stmts   *Sequence
}

// Else is the ELSE arm of a CASE.
type Else struct {
	Else   *Word
	Result *Phrase
	Stmts  *Sequence
}

// Label is a procedural block label: <<name>>. It stands as a statement
// of its own in front of the block or loop it names.
type Label struct {
	Open     token.Token
	Name     Node
	Comments []*Comment // comments inside the brackets
	Close    token.Token
}

// Phrase is a run of nodes rendered with plain word wrapping. It is used
// for expressions, clause bodies and statements without a dedicated rule.
type Phrase struct {
	Items []Node
}

// FromItem is a table reference in FROM, USING or JOIN: LATERAL or ONLY,
// the source and what follows it, such as an alias or TABLESAMPLE.
type FromItem struct {
	Prefix *Word
	Source Node // name, function call or parenthesized subquery
	Alias  *Phrase
}

// Join is the body of a JOIN clause.
type Join struct {
	Item *FromItem // nil when the input has nothing before ON or USING
	On   *Word     // ON or USING; nil for CROSS and NATURAL joins
	Cond *Phrase
}

func (n *QualifiedName) Kind() Kind { return KindQualifiedName }
func (n *FunctionCall) Kind() Kind  { return KindFunctionCall }
func (n *Parens) Kind() Kind        { return KindParens }
func (n *Brackets) Kind() Kind      { return KindBrackets }
func (n *List) Kind() Kind          { return KindList }
func (n *TypeCast) Kind() Kind      { return KindTypeCast }
func (n *Case) Kind() Kind          { return KindCase }
func (n *Label) Kind() Kind         { return KindLabel }
func (n *Phrase) Kind() Kind        { return KindPhrase }
func (n *FromItem) Kind() Kind      { return KindFromItem }
func (n *Join) Kind() Kind          { return KindJoin }

func (n *QualifiedName) Pos() token.Position { return n.Parts[0].Pos() }
func (n *FunctionCall) Pos() token.Position  { return n.Name.Pos() }
func (n *Parens) Pos() token.Position        { return n.Open.Pos }
func (n *Brackets) Pos() token.Position      { return n.Open.Pos }
func (n *List) Pos() token.Position {
	if len(n.Items) == 0 {
		return token.Position{}
	}
	return firstPos(n.Items[0].Node)
}
func (n *TypeCast) Pos() token.Position { return n.Op.Pos }
func (n *Case) Pos() token.Position     { return n.Case.Pos() }
func (n *Label) Pos() token.Position    { return n.Open.Pos }
func (n *Phrase) Pos() token.Position {
	if n == nil {
		return token.Position{}
	}
	return firstPos(n.Items...)
}

func (n *FromItem) Pos() token.Position {
	if n.Prefix != nil {
		return n.Prefix.Pos()
	}
	return firstPos(n.Source)
}
func (n *Join) Pos() token.Position {
	if n.Item != nil {
		return n.Item.Pos()
	}
	if n.On != nil {
		return n.On.Pos()
	}
	return token.Position{}
}

func (*QualifiedName) node() {}
func (*FunctionCall) node()  {}
func (*Parens) node()        {}
func (*Brackets) node()      {}
func (*List) node()          {}
func (*TypeCast) node()      {}
func (*Case) node()          {}
func (*Label) node()         {}
func (*Phrase) node()        {}
func (*FromItem) node()      {}
func (*Join) node()          {}

// Empty reports whether the phrase holds no nodes.
func (n *Phrase) Empty() bool { return n == nil || len(n.Items) == 0 }

// Items returns the prefix, source and alias nodes in source order.
func (n *FromItem) Items() []Node {
	var out []Node
	if n.Prefix != nil {
		out = append(out, n.Prefix)
	}
	if n.Source != nil {
		out = append(out, n.Source)
	}
	if n.Alias != nil {
		out = append(out, n.Alias.Items...)
	}
	return out
}

// ---------- Statements ----------

// Query is a SELECT, INSERT, UPDATE, DELETE or VALUES statement, possibly
// led by WITH. Each clause starts on its own line.
type Query struct {
	Clauses []*Clause
	kind    Kind
}

// Clause is a keyword run and its body: "GROUP BY" and a list, "WHERE" and
// a phrase. A nested query joined by UNION has no keywords of its own.
type Clause struct {
	Leading  []*Comment
	Keywords []*Word
	Body     Node // nil, *List, *Phrase, *Join or *Query
}

// CreateFunction is CREATE [OR REPLACE] FUNCTION or PROCEDURE.
type CreateFunction struct {
	Head    *Phrase
	Params  *Parens
	Options []*Clause // RETURNS, LANGUAGE, AS ...
}

// CreateTable is CREATE TABLE with its column definitions.
type CreateTable struct {
	Head    *Phrase
	Columns *Parens
	Tail    *Phrase
}

// Do is an anonymous code block.
type Do struct {
	Do     *Word
	Prefix *Phrase // LANGUAGE before the body
	Body   Node    // *Body, or *Literal when the body is not interpreted
	Suffix *Phrase
}

// Body is an interpreted dollar-quoted body.
type Body struct {
	Open  token.Token // BODY_START
	Stmts *Sequence
	Close *token.Token // TERMINATOR, nil when unterminated
}

// Block is DECLARE ... BEGIN ... EXCEPTION ... END.
type Block struct {
	Declare   *Word
	Decls     *Sequence
	Begin     *Word
	Stmts     *Sequence
	Exception *Word
	Handlers  []*When
	End       *Word
	EndLabel  Node
}

// If is IF ... THEN ... ELSIF ... ELSE ... END IF.
type If struct {
	Arms      []*CondArm
	Else      *Word
	ElseStmts *Sequence
	End       *Word
	EndIf     *Word
}

// CondArm is IF or ELSIF with its condition and statements.
type CondArm struct {
	Keyword *Word
	Cond    *Phrase
	Then    *Word
	Stmts   *Sequence
}

// Loop is LOOP, WHILE ... LOOP, FOR ... LOOP or FOREACH ... LOOP.
type Loop struct {
	Keyword  *Word   // WHILE, FOR, FOREACH; nil for a bare LOOP
	Head     *Phrase // condition or iteration clause
	Loop     *Word
	Stmts    *Sequence
	End      *Word
	EndLoop  *Word
	EndLabel Node
}

// Statement is the fallback for statements without a dedicated rule.
type Statement struct {
	Phrase *Phrase
}

func (n *Query) Kind() Kind          { return n.kind }
func (n *CreateFunction) Kind() Kind { return KindCreateFunction }
func (n *CreateTable) Kind() Kind    { return KindCreateTable }
func (n *Do) Kind() Kind             { return KindDo }
func (n *Body) Kind() Kind           { return KindBody }
func (n *Block) Kind() Kind          { return KindBlock }
func (n *If) Kind() Kind             { return KindIf }
func (n *Loop) Kind() Kind           { return KindLoop }
func (n *Statement) Kind() Kind      { return KindStatement }

func (n *Query) Pos() token.Position          { return n.Clauses[0].pos() }
func (n *CreateFunction) Pos() token.Position { return n.Head.Pos() }
func (n *CreateTable) Pos() token.Position    { return n.Head.Pos() }
func (n *Do) Pos() token.Position             { return n.Do.Pos() }
func (n *Body) Pos() token.Position           { return n.Open.Pos }
func (n *Block) Pos() token.Position {
	if n.Declare != nil {
		return n.Declare.Pos()
	}
	return n.Begin.Pos()
}
func (n *If) Pos() token.Position { return n.Arms[0].Keyword.Pos() }
func (n *Loop) Pos() token.Position {
	if n.Keyword != nil {
		return n.Keyword.Pos()
	}
	return n.Loop.Pos()
}
func (n *Statement) Pos() token.Position { return n.Phrase.Pos() }

func (*Query) node()          {}
func (*CreateFunction) node() {}
func (*CreateTable) node()    {}
func (*Do) node()             {}
func (*Body) node()           {}
func (*Block) node()          {}
func (*If) node()             {}
func (*Loop) node()           {}
func (*Statement) node()      {}

func (c *Clause) pos() token.Position {
	if len(c.Keywords) > 0 {
		return c.Keywords[0].Pos()
	}
	return firstPos(c.Body)
}

// ---------- Statement sequences ----------

// Stmt is one statement with its surrounding comments and terminator.
type Stmt struct {
	Leading []*Comment

	// BlankBefore counts empty source lines right before Node.
	BlankBefore int

	Node       Node // nil when only comments remained
	Semicolon  bool
	Terminator *token.Token // caller-supplied terminator that ended the statement
	Trailing   []*Comment   // comments after the semicolon on the same line
}

// Sequence is a run of statements inside a body or block.
type Sequence struct {
	Stmts []*Stmt

	// After holds comments between the last statement and the keyword
	// closing the sequence.
	After []*Comment
}

// Empty reports whether the sequence has neither statements nor comments.
func (s *Sequence) Empty() bool {
	return s == nil || (len(s.Stmts) == 0 && len(s.After) == 0)
}

func firstPos(nodes ...Node) token.Position {
	for _, n := range nodes {
		if n != nil {
			return n.Pos()
		}
	}
	return token.Position{}
}
