package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapfmt/internal/config"
	"github.com/leapstack-labs/leapfmt/internal/testutil"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// render formats every statement of src and joins them with line breaks.
func render(t *testing.T, cfg *core.FormatConfig, src string) string {
	t.Helper()
	sc := scanner.New(strings.NewReader(src), scanner.Options{Dialect: postgres.Postgres, Body: plpgsql.PLpgSQL})
	arena := scanner.NewArena(sc)
	p := syntax.NewParser(postgres.Postgres, plpgsql.PLpgSQL, nil)
	r := NewRenderer(cfg, testutil.NewTestLogger(t))

	var out []string
	c := arena.Start()
	for range 1000 {
		st, next := p.Statement(c)
		if st == nil {
			return strings.Join(out, "\n")
		}
		out = append(out, r.Statement(st))
		c = next
		arena.Release(c)
	}
	t.Fatal("parser did not reach the end of input")
	return ""
}

func TestRenderShortQuery(t *testing.T) {
	got := render(t, config.Defaults(), "select a, b from t;")
	assert.Equal(t, "SELECT a, b\nFROM t;", got)
}

func TestRenderListHangingCommas(t *testing.T) {
	cfg := config.Defaults()
	cfg.LineWidth = 20
	got := render(t, cfg, "select aaaa, bbbb, cccc, dddd, eeee from t;")
	want := `SELECT aaaa
     , bbbb
     , cccc
     , dddd
     , eeee
FROM t;`
	assert.Equal(t, want, got)
}

func TestRenderListTrailingComments(t *testing.T) {
	got := render(t, config.Defaults(), "select a, -- c1\nb -- c2\nfrom t;")
	assert.Equal(t, "SELECT a -- c1\n     , b -- c2\nFROM t;", got)
}

func TestRenderTableColumnsBlock(t *testing.T) {
	got := render(t, config.Defaults(), "CREATE TABLE t (id INT, name TEXT);")
	want := `CREATE TABLE t (
    id INT,
    name TEXT
);`
	assert.Equal(t, want, got)
}

func TestRenderCaseExpression(t *testing.T) {
	src := "select case when a = 1 then 'x' else 'y' end from t;"

	got := render(t, config.Defaults(), src)
	assert.Equal(t, "SELECT CASE WHEN a = 1 THEN 'x' ELSE 'y' END\nFROM t;", got)

	cfg := config.Defaults()
	cfg.CaseWhen.SingleLineLength = core.W(20, 1)
	got = render(t, cfg, src)
	want := `SELECT CASE
           WHEN a = 1 THEN 'x'
           ELSE 'y'
       END
FROM t;`
	assert.Equal(t, want, got)
}

func TestRenderDoBlock(t *testing.T) {
	got := render(t, config.Defaults(), "do $$ begin if x > 1 then y := 2; end if; end $$;")
	want := `DO $$
BEGIN
    IF x > 1 THEN
        y := 2;
    END IF;
END
$$;`
	assert.Equal(t, want, got)
}

func TestRenderCaseStatement(t *testing.T) {
	got := render(t, config.Defaults(), "do $$ begin case a when 1 then x := 1; when 2 then x := 2; else x := 3; end case; end $$;")
	want := `DO $$
BEGIN
    CASE a
        WHEN 1 THEN
            x := 1;
        WHEN 2 THEN
            x := 2;
        ELSE
            x := 3;
    END CASE;
END
$$;`
	assert.Equal(t, want, got)
}

func TestRenderExceptionHandlers(t *testing.T) {
	got := render(t, config.Defaults(), "do $$ begin x := 1; exception when others then x := 0; end $$;")
	want := `DO $$
BEGIN
    x := 1;
EXCEPTION
    WHEN OTHERS THEN
        x := 0;
END
$$;`
	assert.Equal(t, want, got)
}

func TestRenderConditionPlacement(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.LineWidth = 30
		got := render(t, cfg, "do $$ begin if aaaaaaaaaa + bbbbbbbbbb > cccccccccc then x := 1; end if; end $$;")
		want := `DO $$
BEGIN
    IF aaaaaaaaaa + bbbbbbbbbb
       > cccccccccc THEN
        x := 1;
    END IF;
END
$$;`
		assert.Equal(t, want, got)
	})

	t.Run("new line", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.LineWidth = 30
		cfg.If = core.ConditionConfig{
			Placement: []core.Weighted[core.ConditionPlacement]{core.W(core.ConditionInline, 1)},
			Fallback:  core.ConditionNewLine,
		}
		got := render(t, cfg, "do $$ begin if aaaaaaaaaa + bbbbbbbbb then x := 1; end if; end $$;")
		want := `DO $$
BEGIN
    IF
        aaaaaaaaaa + bbbbbbbbb
    THEN
        x := 1;
    END IF;
END
$$;`
		assert.Equal(t, want, got)
	})
}

func TestWordCase(t *testing.T) {
	cfg := config.Defaults()
	cfg.Case = core.CaseConfig{
		Keywords:    core.CaseLower,
		Functions:   core.CaseCapitalize,
		Identifiers: core.CaseUpper,
	}
	r := NewRenderer(cfg, nil)

	word := func(lit string, role syntax.WordRole) *syntax.Word {
		return &syntax.Word{Tok: token.Token{Type: token.IDENT, Literal: lit}, Role: role}
	}
	assert.Equal(t, "select", r.word(word("SELECT", syntax.RoleKeyword)))
	assert.Equal(t, "Count", r.word(word("count", syntax.RoleFunction)))
	assert.Equal(t, "USERS", r.word(word("users", syntax.RoleIdentifier)))

	cfg.Case.Identifiers = core.CaseUnchanged
	assert.Equal(t, "MixedCase", r.word(word("MixedCase", syntax.RoleIdentifier)))
}

func TestFlatFormMemoized(t *testing.T) {
	r := NewRenderer(config.Defaults(), nil)
	ph := &syntax.Phrase{Items: []syntax.Node{
		&syntax.Word{Tok: token.Token{Type: token.IDENT, Literal: "a"}},
		&syntax.Operator{Tok: token.Token{Type: token.OPERATOR, Literal: "="}},
		&syntax.Number{Tok: token.Token{Type: token.NUMBER, Literal: "1"}},
	}}
	ctx := NewContext(r.cfg)

	f := r.flat(ph, ctx)
	require.True(t, f.ok)
	assert.Equal(t, "a = 1", f.text)
	assert.Equal(t, 5, f.width)
	assert.Contains(t, r.flats, syntax.Node(ph))

	line := &syntax.Phrase{Items: []syntax.Node{
		&syntax.Word{Tok: token.Token{Type: token.IDENT, Literal: "a"}},
		&syntax.Comment{Tok: token.Token{Type: token.LINE_COMMENT, Literal: "-- note"}},
	}}
	assert.False(t, r.flat(line, ctx).ok)
}

func TestContextWidthNeverGrows(t *testing.T) {
	ctx := NewContext(config.Defaults())
	narrow := ctx.WithWidth(40)
	assert.Equal(t, 40, narrow.Width())
	assert.Equal(t, 40, narrow.WithWidth(60).Width())
	require.NotNil(t, narrow.Parent())
	assert.Equal(t, 100, narrow.Parent().Width())

	list := narrow.WithRole(core.RoleTableColumns)
	assert.Equal(t, core.RoleTableColumns, list.Role())
	assert.Equal(t, core.IndentBlock, list.List().Indent.Value)
	assert.Equal(t, core.RoleCommaList, narrow.Role())
}

func TestRenderListFit(t *testing.T) {
	list := &syntax.List{}
	for range 10 {
		lit := &syntax.Literal{Tok: token.Token{Type: token.STRING, Literal: "abcdefg", Delimiter: "'"}}
		list.Items = append(list.Items, &syntax.ListItem{Node: lit})
	}
	one := strings.Repeat("'abcdefg', ", 9) + "'abcdefg'"

	cfg := config.Defaults()
	cfg.LineWidth = 200
	cfg.Lists.CommaList.SingleLineLength = core.W(150, 1)
	cfg.Lists.CommaList.ArgumentsPerGroup = core.W(2, 0.5)
	r := NewRenderer(cfg, nil)
	assert.Equal(t, one, r.Render(list, NewContext(cfg), 0).String())

	cfg.Lists.CommaList.SingleLineLength = core.W(100, 1)
	r = NewRenderer(cfg, nil)
	got := r.Render(list, NewContext(cfg), 0).String()
	pair := "'abcdefg', 'abcdefg'"
	assert.Equal(t, strings.Repeat(pair+"\n, ", 4)+pair, got)

	// same options, same grouping
	for range 5 {
		assert.Equal(t, got, NewRenderer(cfg, nil).Render(list, NewContext(cfg), 0).String())
	}
}

func TestRenderListConflictingLimits(t *testing.T) {
	list := &syntax.List{}
	for range 6 {
		lit := &syntax.Literal{Tok: token.Token{Type: token.STRING, Literal: "abc", Delimiter: "'"}}
		list.Items = append(list.Items, &syntax.ListItem{Node: lit})
	}
	render := func(cfg *core.FormatConfig) string {
		return NewRenderer(cfg, nil).Render(list, NewContext(cfg), 0).String()
	}

	cfg := config.Defaults()
	cfg.LineWidth = 200
	cfg.Lists.CommaList.SingleLineLength = core.W(0, 0)
	cfg.Lists.CommaList.ArgumentsPerGroup = core.W(3, 1)
	cfg.Lists.CommaList.GroupLength = core.W(10, 0.5)

	// three per group wins over the lighter group length
	triple := "'abc', 'abc', 'abc'"
	assert.Equal(t, triple+"\n, "+triple, render(cfg))

	// the heavier group length leaves one element per group
	cfg.Lists.CommaList.GroupLength = core.W(10, 1.5)
	assert.Equal(t, strings.Repeat("'abc'\n, ", 5)+"'abc'", render(cfg))

	// without a conflict both limits hold
	cfg.Lists.CommaList.GroupLength = core.W(20, 0.5)
	assert.Equal(t, triple+"\n, "+triple, render(cfg))
	cfg.Lists.CommaList.ArgumentsPerGroup = core.W(2, 1)
	pair := "'abc', 'abc'"
	assert.Equal(t, strings.Repeat(pair+"\n, ", 2)+pair, render(cfg))
}
