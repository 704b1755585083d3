package core

// ListRole identifies which list option set governs a comma-separated list.
type ListRole int

// List roles.
const (
	RoleCommaList       ListRole = iota // select lists, GROUP BY, ORDER BY, SET, VALUES
	RoleFromItems                       // FROM items
	RoleFunctionArgs                    // function call arguments
	RoleFunctionDefArgs                 // CREATE FUNCTION parameters
	RoleTableColumns                    // CREATE TABLE column definitions
)

// String returns the configuration key of the role.
func (r ListRole) String() string {
	switch r {
	case RoleCommaList:
		return "comma_list"
	case RoleFromItems:
		return "from_items"
	case RoleFunctionArgs:
		return "function_args"
	case RoleFunctionDefArgs:
		return "function_def_args"
	case RoleTableColumns:
		return "table_columns"
	default:
		return "unknown"
	}
}

// FormatConfig is the resolved, null-free configuration consumed by the
// formatter. It is read-only once handed to the pipeline; concurrent runs
// may share one value.
type FormatConfig struct {
	Dialect    string          `koanf:"dialect" yaml:"dialect"`
	LineWidth  int             `koanf:"line_width" yaml:"line_width"`
	Indent     IndentConfig    `koanf:"indent" yaml:"indent"`
	Case       CaseConfig      `koanf:"case" yaml:"case"`
	BlankLines BlankLinePolicy `koanf:"blank_lines" yaml:"blank_lines"`

	// Terminator is an additional statement terminator, for example the
	// tag of a function body formatted on its own.
	Terminator string `koanf:"terminator" yaml:"terminator"`

	Lists    ListsConfig     `koanf:"lists" yaml:"lists"`
	CaseWhen CaseWhenConfig  `koanf:"case_when" yaml:"case_when"`
	If       ConditionConfig `koanf:"if" yaml:"if"`
	Loop     ConditionConfig `koanf:"loop" yaml:"loop"`
}

// IndentConfig configures indentation.
type IndentConfig struct {
	Width int       `koanf:"width" yaml:"width"`
	Tabs  TabPolicy `koanf:"tabs" yaml:"tabs"`
}

// CaseConfig holds letter-case policies.
type CaseConfig struct {
	Keywords    LetterCase `koanf:"keywords" yaml:"keywords"`
	Functions   LetterCase `koanf:"functions" yaml:"functions"`
	Identifiers LetterCase `koanf:"identifiers" yaml:"identifiers"`
}

// ListsConfig holds one option set per list role.
type ListsConfig struct {
	CommaList       ListConfig `koanf:"comma_list" yaml:"comma_list"`
	FromItems       ListConfig `koanf:"from_items" yaml:"from_items"`
	FunctionArgs    ListConfig `koanf:"function_args" yaml:"function_args"`
	FunctionDefArgs ListConfig `koanf:"function_def_args" yaml:"function_def_args"`
	TableColumns    ListConfig `koanf:"table_columns" yaml:"table_columns"`
}

// For returns the option set for a list role.
func (l ListsConfig) For(role ListRole) ListConfig {
	switch role {
	case RoleFromItems:
		return l.FromItems
	case RoleFunctionArgs:
		return l.FunctionArgs
	case RoleFunctionDefArgs:
		return l.FunctionDefArgs
	case RoleTableColumns:
		return l.TableColumns
	default:
		return l.CommaList
	}
}

// ListConfig is the weighted option set of a comma-separated list.
// A limit of zero or less disables that constraint.
type ListConfig struct {
	// SingleLineLength is the ceiling for rendering the whole list on one
	// line. In grouped layouts it also caps the length of each line.
	SingleLineLength Weighted[int] `koanf:"single_line_length" yaml:"single_line_length"`

	// ArgumentsPerGroup caps how many elements share an output line.
	ArgumentsPerGroup Weighted[int] `koanf:"arguments_per_group" yaml:"arguments_per_group"`

	// GroupLength caps the text length of one group.
	GroupLength Weighted[int] `koanf:"group_length" yaml:"group_length"`

	Indent Weighted[IndentStyle]   `koanf:"indent" yaml:"indent"`
	Comma  Weighted[CommaPosition] `koanf:"comma" yaml:"comma"`
}

// CaseWhenConfig is the option set for CASE expressions and statements.
type CaseWhenConfig struct {
	SingleLineLength Weighted[int]           `koanf:"single_line_length" yaml:"single_line_length"`
	When             Weighted[WhenPlacement] `koanf:"when" yaml:"when"`

	// Then lists THEN placements in order of preference; the heaviest
	// feasible candidate wins, ThenFallback applies when none is.
	Then         []Weighted[ThenPlacement] `koanf:"then" yaml:"then"`
	ThenFallback ThenPlacement             `koanf:"then_fallback" yaml:"then_fallback"`

	// ThenMinColumn and ThenMaxColumn bound the aligned THEN column,
	// counted from the WHEN keyword.
	ThenMinColumn int `koanf:"then_min_column" yaml:"then_min_column"`
	ThenMaxColumn int `koanf:"then_max_column" yaml:"then_max_column"`

	Else Weighted[ElsePlacement] `koanf:"else" yaml:"else"`
	End  Weighted[EndPlacement]  `koanf:"end" yaml:"end"`
}

// ConditionConfig is the option set for procedural conditions.
type ConditionConfig struct {
	Placement []Weighted[ConditionPlacement] `koanf:"placement" yaml:"placement"`
	Fallback  ConditionPlacement             `koanf:"fallback" yaml:"fallback"`
}
