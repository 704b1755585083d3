package syntax

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) []*Stmt {
	t.Helper()
	return parseIn(t, src, postgres.Postgres)
}

func parseIn(t *testing.T, src string, d *dialect.Dialect) []*Stmt {
	t.Helper()
	sc := scanner.New(strings.NewReader(src), scanner.Options{Dialect: d, Body: plpgsql.PLpgSQL})
	arena := scanner.NewArena(sc)
	p := NewParser(d, plpgsql.PLpgSQL, nil)
	var out []*Stmt
	c := arena.Start()
	for range 1000 {
		st, next := p.Statement(c)
		if st == nil {
			return out
		}
		out = append(out, st)
		c = next
		arena.Release(c)
	}
	t.Fatal("parser did not reach the end of input")
	return nil
}

func keywords(cl *Clause) string {
	parts := make([]string, len(cl.Keywords))
	for i, w := range cl.Keywords {
		parts[i] = w.Tok.Literal
	}
	return strings.Join(parts, " ")
}

func clauseKeywords(q *Query) []string {
	out := make([]string, 0, len(q.Clauses))
	for _, cl := range q.Clauses {
		out = append(out, keywords(cl))
	}
	return out
}

func only[T Node](t *testing.T, stmts []*Stmt) T {
	t.Helper()
	require.Len(t, stmts, 1)
	n, ok := stmts[0].Node.(T)
	require.Truef(t, ok, "node is %T", stmts[0].Node)
	return n
}

func TestParseQueryClauses(t *testing.T) {
	stmts := parse(t, "SELECT a, b FROM t LEFT OUTER JOIN u ON t.id = u.id WHERE x = 1 GROUP BY a ORDER BY b DESC LIMIT 3;")
	q := only[*Query](t, stmts)

	assert.Equal(t, KindSelect, q.Kind())
	assert.Equal(t, []string{"SELECT", "FROM", "LEFT OUTER JOIN", "WHERE", "GROUP BY", "ORDER BY", "LIMIT"}, clauseKeywords(q))
	assert.True(t, stmts[0].Semicolon)

	sel, ok := q.Clauses[0].Body.(*List)
	require.True(t, ok)
	assert.Equal(t, core.RoleCommaList, sel.Role)
	assert.Len(t, sel.Items, 2)

	from, ok := q.Clauses[1].Body.(*List)
	require.True(t, ok)
	assert.Equal(t, core.RoleFromItems, from.Role)
	assert.IsType(t, &FromItem{}, from.Items[0].Node)

	join, ok := q.Clauses[2].Body.(*Join)
	require.Truef(t, ok, "join body is %T", q.Clauses[2].Body)
	require.NotNil(t, join.Item)
	assert.Equal(t, "u", join.Item.Source.(*Word).Tok.Literal)
	require.NotNil(t, join.On)
	assert.Equal(t, RoleKeyword, join.On.Role)
	assert.Len(t, join.Cond.Items, 3)
}

func TestParseJoins(t *testing.T) {
	q := only[*Query](t, parse(t, "SELECT * FROM a AS x JOIN b USING (id) CROSS JOIN c NATURAL LEFT JOIN d JOIN LATERAL (SELECT 1) AS e ON true;"))
	assert.Equal(t, []string{"SELECT", "FROM", "JOIN", "CROSS JOIN", "NATURAL LEFT JOIN", "JOIN"}, clauseKeywords(q))

	from := q.Clauses[1].Body.(*List).Items[0].Node.(*FromItem)
	assert.Equal(t, "a", from.Source.(*Word).Tok.Literal)
	require.NotNil(t, from.Alias)
	assert.Len(t, from.Alias.Items, 2)

	using := q.Clauses[2].Body.(*Join)
	require.NotNil(t, using.On)
	assert.True(t, using.On.Tok.Is("using"))
	assert.IsType(t, &Parens{}, using.Cond.Items[0])

	for _, i := range []int{3, 4} {
		j := q.Clauses[i].Body.(*Join)
		assert.Nil(t, j.On)
		assert.Nil(t, j.Cond)
		assert.NotNil(t, j.Item)
	}

	lateral := q.Clauses[5].Body.(*Join)
	require.NotNil(t, lateral.Item.Prefix)
	assert.Equal(t, RoleKeyword, lateral.Item.Prefix.Role)
	sub, ok := lateral.Item.Source.(*Parens)
	require.True(t, ok)
	assert.IsType(t, &Query{}, sub.Body)
	assert.True(t, lateral.On.Tok.Is("on"))
	assert.Equal(t, KindJoin, lateral.Kind())
}

func TestParseQueryKinds(t *testing.T) {
	tests := []struct {
		src  string
		kind Kind
		kws  []string
	}{
		{"INSERT INTO t (a) VALUES (1), (2) RETURNING a", KindInsert, []string{"INSERT INTO", "VALUES", "RETURNING"}},
		{"UPDATE t SET a = 1, b = 2 WHERE c", KindUpdate, []string{"UPDATE", "SET", "WHERE"}},
		{"DELETE FROM t USING u WHERE t.id = u.id", KindDelete, []string{"DELETE FROM", "USING", "WHERE"}},
		{"VALUES (1), (2)", KindValues, []string{"VALUES"}},
		{"WITH x AS (SELECT 1) SELECT * FROM x", KindSelect, []string{"WITH", "SELECT", "FROM"}},
		{"SELECT 1 UNION ALL SELECT 2", KindSelect, []string{"SELECT", "UNION ALL", "SELECT"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			q := only[*Query](t, parse(t, tt.src))
			assert.Equal(t, tt.kind, q.Kind())
			assert.Equal(t, tt.kws, clauseKeywords(q))
		})
	}
}

func TestParseGluedWords(t *testing.T) {
	q := only[*Query](t, parse(t, "SELECT a FROM t WHERE a IS DISTINCT FROM b"))
	assert.Equal(t, []string{"SELECT", "FROM", "WHERE"}, clauseKeywords(q))

	q = only[*Query](t, parse(t, "INSERT INTO t (a) VALUES (1) ON CONFLICT (a) DO UPDATE SET a = 2"))
	assert.Equal(t, []string{"INSERT INTO", "VALUES", "ON CONFLICT"}, clauseKeywords(q))
}

func TestParseWordBeforeClosingToken(t *testing.T) {
	stmts := parse(t, "select f(x) from t where a = b; select g(y, z);")
	require.Len(t, stmts, 2)
	assert.True(t, stmts[0].Semicolon)
	assert.True(t, stmts[1].Semicolon)

	q, ok := stmts[0].Node.(*Query)
	require.True(t, ok)
	assert.Equal(t, []string{"select", "from", "where"}, clauseKeywords(q))
	call, ok := q.Clauses[0].Body.(*List).Items[0].Node.(*FunctionCall)
	require.True(t, ok)
	assert.IsType(t, &Word{}, call.Args.Body)
	require.NotNil(t, call.Args.Close)
	where := q.Clauses[2].Body.(*Phrase)
	assert.Len(t, where.Items, 3)

	q, ok = stmts[1].Node.(*Query)
	require.True(t, ok)
	call = q.Clauses[0].Body.(*List).Items[0].Node.(*FunctionCall)
	args, ok := call.Args.Body.(*List)
	require.True(t, ok)
	assert.Len(t, args.Items, 2)

	fn := only[*CreateFunction](t, parse(t, "create function f() returns int as 'select 1' language sql;"))
	require.NotNil(t, fn.Params)
	assert.Nil(t, fn.Params.Body)
	assert.Len(t, fn.Head.Items, 3)
}

func TestParseListComments(t *testing.T) {
	q := only[*Query](t, parse(t, "SELECT a -- c1\n     , b -- c2\nFROM t;\n"))
	sel, ok := q.Clauses[0].Body.(*List)
	require.True(t, ok)
	require.Len(t, sel.Items, 2)

	require.NotNil(t, sel.Items[0].Trailing)
	assert.Equal(t, "-- c1", sel.Items[0].Trailing.Text())
	require.NotNil(t, sel.Items[1].Trailing)
	assert.Equal(t, "-- c2", sel.Items[1].Trailing.Text())
	assert.Equal(t, []string{"SELECT", "FROM"}, clauseKeywords(q))
}

func TestParseLeadingComments(t *testing.T) {
	stmts := parse(t, "-- first\nSELECT 1;\n\n\n/* second */\nSELECT 2; -- after\n")
	require.Len(t, stmts, 2)

	require.Len(t, stmts[0].Leading, 1)
	assert.True(t, stmts[0].Leading[0].OwnLine)

	require.Len(t, stmts[1].Leading, 1)
	assert.Equal(t, 2, stmts[1].Leading[0].BlankBefore)
	require.Len(t, stmts[1].Trailing, 1)
	assert.Equal(t, "-- after", stmts[1].Trailing[0].Text())
}

func TestParseFunctionCalls(t *testing.T) {
	st := only[*Statement](t, parse(t, "PERFORM coalesce(a, b), s.f(1), x IN (1, 2)"))
	items := st.Phrase.Items

	call, ok := items[1].(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, RoleFunction, call.Name.(*Word).Role)
	args, ok := call.Args.Body.(*List)
	require.True(t, ok)
	assert.Equal(t, core.RoleFunctionArgs, args.Role)

	qcall, ok := items[3].(*FunctionCall)
	require.True(t, ok)
	assert.IsType(t, &QualifiedName{}, qcall.Name)

	// IN is never a function name
	in, ok := items[6].(*Word)
	require.True(t, ok)
	assert.Equal(t, RoleKeyword, in.Role)
	assert.IsType(t, &Parens{}, items[7])
}

func TestParseTypeCast(t *testing.T) {
	st := only[*Query](t, parse(t, "SELECT x::double precision, y::numeric(10, 2)[], z::timestamp with time zone"))
	sel := st.Clauses[0].Body.(*List)
	require.Len(t, sel.Items, 3)

	first := sel.Items[0].Node.(*Phrase)
	cast := first.Items[1].(*TypeCast)
	assert.Len(t, cast.Type, 2)

	second := sel.Items[1].Node.(*Phrase)
	cast = second.Items[1].(*TypeCast)
	require.Len(t, cast.Type, 2)
	assert.IsType(t, &FunctionCall{}, cast.Type[0])
	assert.IsType(t, &Brackets{}, cast.Type[1])

	third := sel.Items[2].Node.(*Phrase)
	cast = third.Items[1].(*TypeCast)
	assert.Len(t, cast.Type, 4)
}

func TestParseCaseExpression(t *testing.T) {
	q := only[*Query](t, parse(t, "SELECT CASE WHEN a THEN 1 WHEN b THEN 2 ELSE 3 END AS v FROM t"))
	assert.Equal(t, []string{"SELECT", "FROM"}, clauseKeywords(q))

	ph := q.Clauses[0].Body.(*List).Items[0].Node.(*Phrase)
	c, ok := ph.Items[0].(*Case)
	require.True(t, ok)
	assert.Nil(t, c.Operand)
	assert.Len(t, c.Arms, 2)
	require.NotNil(t, c.Else)
	assert.NotNil(t, c.End)
	assert.False(t, c.Statement)
}

func TestParseNestedQuery(t *testing.T) {
	q := only[*Query](t, parse(t, "SELECT a FROM (SELECT b FROM t) AS s WHERE a IN (SELECT c FROM u)"))
	assert.Equal(t, []string{"SELECT", "FROM", "WHERE"}, clauseKeywords(q))

	from, ok := q.Clauses[1].Body.(*List).Items[0].Node.(*FromItem)
	require.True(t, ok)
	assert.Equal(t, KindFromItem, from.Kind())
	sub, ok := from.Source.(*Parens)
	require.True(t, ok)
	require.NotNil(t, from.Alias)
	assert.Len(t, from.Alias.Items, 2)
	inner, ok := sub.Body.(*Query)
	require.True(t, ok)
	assert.Equal(t, []string{"SELECT", "FROM"}, clauseKeywords(inner))
	assert.NotNil(t, sub.Close)
}

func TestParseCreateTable(t *testing.T) {
	n := only[*CreateTable](t, parse(t, "CREATE TABLE IF NOT EXISTS t (id int PRIMARY KEY, name text) WITH (fillfactor = 70);"))
	cols, ok := n.Columns.Body.(*List)
	require.True(t, ok)
	assert.Equal(t, core.RoleTableColumns, cols.Role)
	assert.Len(t, cols.Items, 2)
	require.NotNil(t, n.Tail)

	st := only[*Statement](t, parse(t, "CREATE TABLE t AS SELECT 1"))
	assert.NotEmpty(t, st.Phrase.Items)
}

func TestParseDoBlock(t *testing.T) {
	do := only[*Do](t, parse(t, "DO $$\nDECLARE\n  x int := 1;\nBEGIN\n  IF x > 0 THEN\n    RAISE NOTICE 'pos';\n  ELSE\n    x := 0;\n  END IF;\nEND\n$$;"))
	body, ok := do.Body.(*Body)
	require.True(t, ok)
	require.NotNil(t, body.Close)
	require.Len(t, body.Stmts.Stmts, 1)

	block, ok := body.Stmts.Stmts[0].Node.(*Block)
	require.True(t, ok)
	require.NotNil(t, block.Declare)
	assert.Len(t, block.Decls.Stmts, 1)
	require.NotNil(t, block.End)
	require.Len(t, block.Stmts.Stmts, 1)

	ifs, ok := block.Stmts.Stmts[0].Node.(*If)
	require.True(t, ok)
	assert.Len(t, ifs.Arms, 1)
	assert.NotNil(t, ifs.Else)
	assert.NotNil(t, ifs.EndIf)
	assert.Len(t, ifs.ElseStmts.Stmts, 1)
}

func TestParseEmptyDo(t *testing.T) {
	do := only[*Do](t, parse(t, "DO $$\nDECLARE\nBEGIN\nEND\n$$;"))
	body := do.Body.(*Body)
	block := body.Stmts.Stmts[0].Node.(*Block)
	assert.True(t, block.Decls.Empty())
	assert.True(t, block.Stmts.Empty())
	assert.NotNil(t, block.End)
}

func TestParseForeignLanguageBody(t *testing.T) {
	src := "CREATE FUNCTION f() RETURNS int AS $$\nreturn 1\n$$ LANGUAGE plpython3u;"
	n := only[*CreateFunction](t, parse(t, src))
	var body Node
	for _, opt := range n.Options {
		if len(opt.Keywords) > 0 && opt.Keywords[0].Tok.Is("as") {
			body = opt.Body
		}
	}
	lit, ok := body.(*Literal)
	require.Truef(t, ok, "body is %T", body)
	assert.Equal(t, "$$\nreturn 1\n$$", lit.Tok.Source())
}

func TestParseFunctionBody(t *testing.T) {
	src := "CREATE OR REPLACE FUNCTION f(a int, b text) RETURNS int LANGUAGE plpgsql AS $fn$\nBEGIN\n  RETURN a;\nEND\n$fn$;"
	n := only[*CreateFunction](t, parse(t, src))
	require.NotNil(t, n.Params)
	params, ok := n.Params.Body.(*List)
	require.True(t, ok)
	assert.Equal(t, core.RoleFunctionDefArgs, params.Role)

	var kws []string
	for _, opt := range n.Options {
		kws = append(kws, keywords(opt))
	}
	assert.Equal(t, []string{"RETURNS", "LANGUAGE", "AS"}, kws)
	body, ok := n.Options[2].Body.(*Body)
	require.True(t, ok)
	assert.IsType(t, &Block{}, body.Stmts.Stmts[0].Node)
}

func TestParseLoops(t *testing.T) {
	src := "DO $$\nBEGIN\n  <<outer>>\n  FOR r IN SELECT * FROM t WHERE x LOOP\n    EXIT WHEN r.a;\n  END LOOP outer;\n  WHILE true LOOP\n    NULL;\n  END LOOP;\nEND\n$$;"
	do := only[*Do](t, parse(t, src))
	block := do.Body.(*Body).Stmts.Stmts[0].Node.(*Block)
	stmts := block.Stmts.Stmts
	require.Len(t, stmts, 3)

	assert.IsType(t, &Label{}, stmts[0].Node)

	loop, ok := stmts[1].Node.(*Loop)
	require.True(t, ok)
	require.NotNil(t, loop.Head)
	q, ok := loop.Head.Items[2].(*Query)
	require.True(t, ok)
	assert.Equal(t, []string{"SELECT", "FROM", "WHERE"}, clauseKeywords(q))
	assert.Len(t, loop.Stmts.Stmts, 1)
	assert.NotNil(t, loop.EndLoop)
	assert.NotNil(t, loop.EndLabel)

	assert.IsType(t, &Loop{}, stmts[2].Node)
}

func TestParseKeywordEndLabels(t *testing.T) {
	src := "DO $$\nBEGIN\n  <<inner>>\n  BEGIN\n    NULL;\n  END inner;\n  <<outer>>\n  LOOP\n    EXIT outer;\n  END LOOP outer;\n  NULL;\nEND\n$$;"
	do := only[*Do](t, parse(t, src))
	stmts := do.Body.(*Body).Stmts.Stmts[0].Node.(*Block).Stmts.Stmts
	require.Len(t, stmts, 5)

	block, ok := stmts[1].Node.(*Block)
	require.True(t, ok)
	require.NotNil(t, block.EndLabel)
	assert.Equal(t, "inner", block.EndLabel.(*Word).Tok.Literal)
	assert.True(t, stmts[1].Semicolon)

	loop, ok := stmts[3].Node.(*Loop)
	require.True(t, ok)
	require.NotNil(t, loop.EndLabel)
	assert.Equal(t, RoleIdentifier, loop.EndLabel.(*Word).Role)
	assert.True(t, stmts[3].Semicolon)

	assert.IsType(t, &Statement{}, stmts[4].Node)
}

func TestParseCaseStatement(t *testing.T) {
	src := "DO $$\nBEGIN\n  CASE x\n    WHEN 1 THEN y := 1;\n    ELSE y := 2;\n  END CASE;\nEND\n$$;"
	do := only[*Do](t, parse(t, src))
	block := do.Body.(*Body).Stmts.Stmts[0].Node.(*Block)
	c, ok := block.Stmts.Stmts[0].Node.(*Case)
	require.True(t, ok)
	assert.True(t, c.Statement)
	require.NotNil(t, c.Operand)
	require.Len(t, c.Arms, 1)
	assert.Len(t, c.Arms[0].Stmts.Stmts, 1)
	require.NotNil(t, c.Else)
	assert.Len(t, c.Else.Stmts.Stmts, 1)
	assert.NotNil(t, c.EndSuffix)
}

func TestParseExceptionHandlers(t *testing.T) {
	src := "DO $$\nBEGIN\n  x := 1;\nEXCEPTION\n  WHEN division_by_zero THEN\n    x := 0;\n  WHEN others THEN\n    RAISE;\nEND\n$$;"
	do := only[*Do](t, parse(t, src))
	block := do.Body.(*Body).Stmts.Stmts[0].Node.(*Block)
	require.NotNil(t, block.Exception)
	require.Len(t, block.Handlers, 2)
	assert.Len(t, block.Handlers[0].Stmts.Stmts, 1)
	assert.NotNil(t, block.End)
}

func TestParseProceduralTopLevel(t *testing.T) {
	stmts := parseIn(t, "IF a THEN\n  b := 1;\nEND IF;", plpgsql.PLpgSQL)
	ifs := only[*If](t, stmts)
	assert.NotNil(t, ifs.EndIf)
}

func TestParseMalformed(t *testing.T) {
	stmts := parse(t, "SELECT 'abc")
	require.Len(t, stmts, 1)

	stmts = parse(t, "SELECT (a")
	q := only[*Query](t, stmts)
	ph := q.Clauses[0].Body.(*List).Items[0].Node.(*Parens)
	assert.Nil(t, ph.Close)

	stmts = parse(t, "SELECT a)")
	require.Len(t, stmts, 1)
}

func TestParseEmptyStatements(t *testing.T) {
	stmts := parse(t, ";;SELECT 1;")
	require.Len(t, stmts, 3)
	assert.Nil(t, stmts[0].Node)
	assert.True(t, stmts[0].Semicolon)
	assert.IsType(t, &Query{}, stmts[2].Node)

	assert.Empty(t, parse(t, "  \n\n "))
}
