package syntax

import (
	"log/slog"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// ---------- Statements ----------

// stmt reads one statement with its leading comments. closes ends the
// enclosing sequence when it matches at the statement start. A Stmt with a
// nil Node and no semicolon tells the caller that the sequence is over; the
// cursor is then at the token that ended it.
func (p *Parser) stmt(c scanner.Cursor, s scope, fresh bool, closes StopFunc) (*Stmt, scanner.Cursor) {
	g, c := p.skip(c, fresh)
	st := &Stmt{Leading: g.comments, BlankBefore: max(g.lines-1, 0)}
	if len(g.comments) == 0 && fresh {
		st.BlankBefore = max(g.lines, 0)
	}

	t := c.Token()
	switch {
	case t.Type == token.SEMICOLON:
		st.Semicolon = true
		return st, p.trailing(st, c.Next())
	case t.Type == token.TERMINATOR && s.top:
		st.Terminator = &t
		return st, p.trailing(st, c.Next())
	case s.ends(c), closes != nil && closes(c):
		return st, c
	}

	start := c
	st.Node, c = p.dispatch(c, s)
	if !start.Before(c) {
		// no rule consumed anything; keep the token as text
		st.Node = &Statement{Phrase: &Phrase{Items: []Node{&Punct{Tok: t}}}}
		c = c.Next()
	}

	switch t := c.Token(); {
	case t.Type == token.SEMICOLON:
		st.Semicolon = true
		c = p.trailing(st, c.Next())
		if tt := next(c).Token(); tt.Type == token.TERMINATOR && s.top && !hasLinefeed(c, next(c)) {
			st.Terminator = &tt
			c = p.trailing(st, next(c).Next())
		}
	case t.Type == token.TERMINATOR && s.top:
		st.Terminator = &t
		c = p.trailing(st, c.Next())
	}
	return st, c
}

// trailing attaches the comments that follow a statement on its last line.
// The line break itself is left in place.
func (p *Parser) trailing(st *Stmt, c scanner.Cursor) scanner.Cursor {
	for x := c; ; x = x.Next() {
		switch t := x.Token(); t.Type {
		case token.WHITESPACE:
		case token.LINE_COMMENT, token.BLOCK_COMMENT:
			st.Trailing = append(st.Trailing, &Comment{Tok: t})
			c = x.Next()
		default:
			return c
		}
	}
}

func hasLinefeed(from, to scanner.Cursor) bool {
	for c := from; c.Before(to); c = c.Next() {
		if c.Type() == token.LINEFEED {
			return true
		}
	}
	return false
}

// sequence reads statements until one comes back empty. Comments before
// the end of the sequence are kept in After.
func (p *Parser) sequence(c scanner.Cursor, s scope, closes StopFunc) (*Sequence, scanner.Cursor) {
	seq := &Sequence{}
	for {
		st, after := p.stmt(c, s, false, closes)
		if st.Node == nil && !st.Semicolon && st.Terminator == nil {
			seq.After = st.Leading
			return seq, after
		}
		seq.Stmts = append(seq.Stmts, st)
		c = after
	}
}

// dispatch picks the rule for the statement starting at c.
func (p *Parser) dispatch(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	if p.procedural {
		if n, after, ok := p.procedure(c, s); ok {
			return n, after
		}
	}
	t := c.Token()
	switch t.Lower() {
	case "select", "with", "values", "insert", "update", "delete":
		return p.query(c, s)
	case "create":
		if n, after, ok := p.create(c, s); ok {
			return n, after
		}
	case "do":
		return p.do(c, s)
	}
	ph, after := p.phrase(c, s)
	p.logger.Debug("statement kept as phrase",
		slog.String("token", t.Source()),
		slog.Int("line", t.Pos.Line),
		slog.Int("column", t.Pos.Column))
	return &Statement{Phrase: ph}, after
}

// ---------- Queries ----------

type clauseWord struct {
	words    []string
	optional bool
}

func req(ws ...string) clauseWord { return clauseWord{words: ws} }
func opt(ws ...string) clauseWord { return clauseWord{words: ws, optional: true} }

type bodyKind int

const (
	bodyPhrase bodyKind = iota
	bodyList
	bodyFromItems
	bodyJoin
	bodyNone
)

// clauseRule describes the keywords that open a query clause.
type clauseRule struct {
	after   string // clause that must appear earlier, or ""
	pattern []clauseWord
	body    bodyKind
}

// clauseRules are tried in order; the first match wins.
var clauseRules = []clauseRule{
	{pattern: []clauseWord{req("with"), opt("recursive")}, body: bodyList},
	{pattern: []clauseWord{req("select"), opt("distinct", "all"), opt("on")}, body: bodyList},
	{pattern: []clauseWord{req("insert"), opt("into")}},
	{pattern: []clauseWord{req("update"), opt("only")}},
	{pattern: []clauseWord{req("delete"), opt("from")}},
	{pattern: []clauseWord{req("values")}, body: bodyList},
	{pattern: []clauseWord{req("into"), opt("strict")}},
	{pattern: []clauseWord{req("from")}, body: bodyFromItems},
	{pattern: []clauseWord{opt("natural"), opt("inner", "cross", "left", "right", "full"), opt("outer"), req("join")}, body: bodyJoin},
	{pattern: []clauseWord{req("where")}},
	{pattern: []clauseWord{req("group"), req("by")}, body: bodyList},
	{pattern: []clauseWord{req("having")}},
	{pattern: []clauseWord{req("window")}, body: bodyList},
	{pattern: []clauseWord{req("order"), req("by")}, body: bodyList},
	{pattern: []clauseWord{req("limit")}},
	{pattern: []clauseWord{req("offset")}},
	{pattern: []clauseWord{req("fetch"), opt("first", "next")}},
	{pattern: []clauseWord{req("for"), req("update", "share", "no", "key")}},
	{pattern: []clauseWord{req("union"), opt("all", "distinct")}, body: bodyNone},
	{pattern: []clauseWord{req("intersect"), opt("all", "distinct")}, body: bodyNone},
	{pattern: []clauseWord{req("except"), opt("all", "distinct")}, body: bodyNone},
	{pattern: []clauseWord{req("returning")}, body: bodyList},
	{after: "update", pattern: []clauseWord{req("set")}, body: bodyList},
	{after: "delete", pattern: []clauseWord{req("using")}, body: bodyFromItems},
	{after: "insert", pattern: []clauseWord{req("on"), req("conflict")}},
}

// matchClause matches the clause keywords at c. It returns the keywords,
// the cursor after them and the rule that matched.
func matchClause(c scanner.Cursor, seen map[string]bool) ([]*Word, scanner.Cursor, *clauseRule) {
	for i := range clauseRules {
		r := &clauseRules[i]
		if r.after != "" && !seen[r.after] {
			continue
		}
		if kws, after, ok := r.match(c); ok {
			return kws, after, r
		}
	}
	return nil, c, nil
}

func (r *clauseRule) match(c scanner.Cursor) ([]*Word, scanner.Cursor, bool) {
	var kws []*Word
	x := c
	for _, w := range r.pattern {
		t := x.Token()
		hit := false
		for _, word := range w.words {
			if t.Is(word) {
				hit = true
				break
			}
		}
		switch {
		case hit:
			kws = append(kws, keyword(t))
			c = x.Next()
			x = next(c)
		case !w.optional:
			return nil, c, false
		}
	}
	return kws, c, len(kws) > 0
}

// query reads clauses at the paren and block depth of s.
func (p *Parser) query(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	q := &Query{}
	qs := scope{paren: s.paren, block: s.block, stop: s.stop, outer: s.outer}
	seen := map[string]bool{}
	startsClause := func(x scanner.Cursor) bool {
		t := x.Token()
		if t.Type != token.IDENT || t.ParenDepth != qs.paren || t.BlockDepth != qs.block {
			return false
		}
		_, _, r := matchClause(x, seen)
		return r != nil
	}
	bs := qs.with(startsClause)

	for {
		g, x := p.skip(c, false)
		if qs.ends(x) {
			if len(g.comments) > 0 {
				q.Clauses = append(q.Clauses, &Clause{Leading: g.comments})
			}
			q.kind = queryKind(q)
			return q, x
		}
		cl := &Clause{Leading: g.comments}
		kws, after, r := matchClause(x, seen)
		if r == nil {
			// text before any clause keyword
			ph, y := p.phrase(x, bs)
			cl.Body = ph
			q.Clauses = append(q.Clauses, cl)
			c = y
			continue
		}
		cl.Keywords = kws
		seen[kws[0].Tok.Lower()] = true
		c = after
		if y := next(c); (qs.ends(y) || startsClause(y)) && !hasComment(c, y) {
			q.Clauses = append(q.Clauses, cl)
			continue
		}
		switch r.body {
		case bodyList, bodyFromItems:
			role := listRoleOf(r.body)
			l, _, y := p.list(c, bs, role)
			if r.body == bodyFromItems {
				for _, it := range l.Items {
					it.Node = fromItem(it.Node)
				}
			}
			if len(l.Items) > 0 || len(l.After) > 0 {
				cl.Body = l
			}
			c = y
		case bodyJoin:
			cl.Body, c = p.join(c, bs)
		default:
			var ph *Phrase
			ph, c = p.phrase(c, bs)
			if len(ph.Items) > 0 {
				cl.Body = ph
			}
		}
		q.Clauses = append(q.Clauses, cl)
	}
}

// join reads the body of a JOIN clause: the joined item up to ON or USING
// and the condition after it.
func (p *Parser) join(c scanner.Cursor, s scope) (*Join, scanner.Cursor) {
	j := &Join{}
	ph, c := p.phrase(c, s.with(words("on", "using")))
	if len(ph.Items) > 0 {
		j.Item = fromItem(unwrap(ph))
	}
	if t := c.Token(); (t.Is("on") || t.Is("using")) && !s.ends(c) {
		j.On = keyword(t)
		j.Cond, c = p.phrase(c.Next(), s)
	}
	return j, c
}

// fromItem splits a table reference into LATERAL or ONLY, the source and
// the rest.
func fromItem(n Node) *FromItem {
	items := []Node{n}
	if ph, ok := n.(*Phrase); ok {
		items = ph.Items
	}
	fi := &FromItem{}
	if w, ok := items[0].(*Word); ok && len(items) > 1 && (w.Tok.Is("lateral") || w.Tok.Is("only")) {
		w.Role = RoleKeyword
		fi.Prefix = w
		items = items[1:]
	}
	fi.Source = items[0]
	if len(items) > 1 {
		fi.Alias = &Phrase{Items: items[1:]}
	}
	return fi
}

func listRoleOf(k bodyKind) core.ListRole {
	if k == bodyFromItems {
		return core.RoleFromItems
	}
	return core.RoleCommaList
}

func hasComment(from, to scanner.Cursor) bool {
	for c := from; c.Before(to); c = c.Next() {
		if _, ok := token.CommentKindOf(c.Token()); ok {
			return true
		}
	}
	return false
}

func queryKind(q *Query) Kind {
	for _, cl := range q.Clauses {
		if len(cl.Keywords) == 0 {
			continue
		}
		switch cl.Keywords[0].Tok.Lower() {
		case "select":
			return KindSelect
		case "insert":
			return KindInsert
		case "update":
			return KindUpdate
		case "delete":
			return KindDelete
		case "values":
			return KindValues
		}
	}
	return KindSelect
}
