// Package config completes and validates formatter configuration.
// The formatting core consumes only the resolved core.FormatConfig; this
// package owns its default values, the config file name and the checks run
// before a configuration is handed to the pipeline.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapfmt/pkg/core"
)

// Default configuration values.
const (
	DefaultDialect     = "postgres"
	DefaultLineWidth   = 100
	DefaultIndentWidth = 4
)

// Defaults returns the default resolved configuration. Every call returns a
// fresh value; callers may modify it freely.
func Defaults() *core.FormatConfig {
	return &core.FormatConfig{
		Dialect:   DefaultDialect,
		LineWidth: DefaultLineWidth,
		Indent: core.IndentConfig{
			Width: DefaultIndentWidth,
			Tabs:  core.TabsNone,
		},
		Case: core.CaseConfig{
			Keywords:    core.CaseUpper,
			Functions:   core.CaseUnchanged,
			Identifiers: core.CaseUnchanged,
		},
		BlankLines: core.BlankLinesCollapse,
		Lists: core.ListsConfig{
			CommaList: defaultList(),
			FromItems: defaultList(),
			FunctionArgs: core.ListConfig{
				SingleLineLength:  core.W(80, 1),
				ArgumentsPerGroup: core.W(0, 0),
				GroupLength:       core.W(0, 0),
				Indent:            core.W(core.IndentAligned, 1),
				Comma:             core.W(core.CommaAfter, 1),
			},
			FunctionDefArgs: core.ListConfig{
				SingleLineLength:  core.W(80, 1),
				ArgumentsPerGroup: core.W(1, 0.8),
				GroupLength:       core.W(0, 0),
				Indent:            core.W(core.IndentAligned, 1),
				Comma:             core.W(core.CommaAfter, 1),
			},
			TableColumns: core.ListConfig{
				SingleLineLength:  core.W(80, 0),
				ArgumentsPerGroup: core.W(1, 1),
				GroupLength:       core.W(0, 0),
				Indent:            core.W(core.IndentBlock, 1),
				Comma:             core.W(core.CommaAfter, 1),
			},
		},
		CaseWhen: core.CaseWhenConfig{
			SingleLineLength: core.W(60, 1),
			When:             core.W(core.WhenIndented, 1),
			Then: []core.Weighted[core.ThenPlacement]{
				core.W(core.ThenInline, 1),
				core.W(core.ThenAligned, 0.5),
			},
			ThenFallback:  core.ThenNewLine,
			ThenMinColumn: 0,
			ThenMaxColumn: 40,
			Else:          core.W(core.ElseUnderWhen, 1),
			End:           core.W(core.EndAligned, 1),
		},
		If:   defaultCondition(),
		Loop: defaultCondition(),
	}
}

func defaultList() core.ListConfig {
	return core.ListConfig{
		SingleLineLength:  core.W(80, 1),
		ArgumentsPerGroup: core.W(1, 0.8),
		GroupLength:       core.W(0, 0),
		Indent:            core.W(core.IndentAligned, 1),
		Comma:             core.W(core.CommaBefore, 1),
	}
}

func defaultCondition() core.ConditionConfig {
	return core.ConditionConfig{
		Placement: []core.Weighted[core.ConditionPlacement]{
			core.W(core.ConditionInline, 1),
			core.W(core.ConditionWrapped, 0.5),
		},
		Fallback: core.ConditionNewLine,
	}
}

// DefaultsMap returns Defaults as a nested map keyed like the config file,
// suitable as the lowest layer of a layered loader.
func DefaultsMap() (map[string]any, error) {
	raw, err := yaml.Marshal(Defaults())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	return m, nil
}

// MarshalYAML renders a configuration as a config file document.
func MarshalYAML(cfg *core.FormatConfig) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
