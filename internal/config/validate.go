package config

import (
	"encoding"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
)

// ErrInvalidOption marks every validation failure.
var ErrInvalidOption = core.ErrInvalidOption

// Minimum accepted values.
const (
	MinLineWidth   = 20
	MinIndentWidth = 1
)

// Validate checks that cfg is complete and consistent. All problems are
// reported together; each wraps ErrInvalidOption.
func Validate(cfg *core.FormatConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrInvalidOption)
	}

	v := &validator{}

	if _, err := dialect.Lookup(cfg.Dialect); err != nil {
		v.fail("dialect", "%v", err)
	}
	if cfg.LineWidth < MinLineWidth {
		v.fail("line_width", "must be at least %d, got %d", MinLineWidth, cfg.LineWidth)
	}
	if cfg.Indent.Width < MinIndentWidth {
		v.fail("indent.width", "must be at least %d, got %d", MinIndentWidth, cfg.Indent.Width)
	}
	v.enum(checkEnum("indent.tabs", cfg.Indent.Tabs))
	v.enum(checkEnum("case.keywords", cfg.Case.Keywords))
	v.enum(checkEnum("case.functions", cfg.Case.Functions))
	v.enum(checkEnum("case.identifiers", cfg.Case.Identifiers))
	v.enum(checkEnum("blank_lines", cfg.BlankLines))

	lists := []struct {
		name string
		list core.ListConfig
	}{
		{"lists.comma_list", cfg.Lists.CommaList},
		{"lists.from_items", cfg.Lists.FromItems},
		{"lists.function_args", cfg.Lists.FunctionArgs},
		{"lists.function_def_args", cfg.Lists.FunctionDefArgs},
		{"lists.table_columns", cfg.Lists.TableColumns},
	}
	for _, l := range lists {
		v.weight(l.name+".single_line_length", l.list.SingleLineLength.Weight)
		v.weight(l.name+".arguments_per_group", l.list.ArgumentsPerGroup.Weight)
		v.weight(l.name+".group_length", l.list.GroupLength.Weight)
		v.weight(l.name+".indent", l.list.Indent.Weight)
		v.weight(l.name+".comma", l.list.Comma.Weight)
		v.enum(checkEnum(l.name+".indent", l.list.Indent.Value))
		v.enum(checkEnum(l.name+".comma", l.list.Comma.Value))
	}

	cw := cfg.CaseWhen
	v.weight("case_when.single_line_length", cw.SingleLineLength.Weight)
	v.weight("case_when.when", cw.When.Weight)
	v.enum(checkEnum("case_when.when", cw.When.Value))
	for i, then := range cw.Then {
		name := fmt.Sprintf("case_when.then[%d]", i)
		v.weight(name, then.Weight)
		v.enum(checkEnum(name, then.Value))
	}
	v.enum(checkEnum("case_when.then_fallback", cw.ThenFallback))
	if cw.ThenMinColumn < 0 || cw.ThenMinColumn > cw.ThenMaxColumn {
		v.fail("case_when.then_min_column", "window [%d, %d] is empty", cw.ThenMinColumn, cw.ThenMaxColumn)
	}
	v.weight("case_when.else", cw.Else.Weight)
	v.enum(checkEnum("case_when.else", cw.Else.Value))
	v.weight("case_when.end", cw.End.Weight)
	v.enum(checkEnum("case_when.end", cw.End.Value))

	for _, c := range []struct {
		name string
		cond core.ConditionConfig
	}{{"if", cfg.If}, {"loop", cfg.Loop}} {
		name, cond := c.name, c.cond
		for i, p := range cond.Placement {
			field := fmt.Sprintf("%s.placement[%d]", name, i)
			v.weight(field, p.Weight)
			v.enum(checkEnum(field, p.Value))
		}
		v.enum(checkEnum(name+".fallback", cond.Fallback))
	}

	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) fail(field, format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s: %s", ErrInvalidOption, field, fmt.Sprintf(format, args...)))
}

func (v *validator) weight(field string, w float64) {
	if w < 0 {
		v.fail(field, "weight must not be negative, got %g", w)
	}
}

func (v *validator) enum(err error) {
	if err != nil {
		v.errs = append(v.errs, err)
	}
}

// checkEnum re-parses an enum value so values built in Go get the same
// checks as decoded ones.
func checkEnum[T ~string, P interface {
	*T
	encoding.TextUnmarshaler
}](field string, value T) error {
	var zero T
	if err := P(&zero).UnmarshalText([]byte(value)); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
