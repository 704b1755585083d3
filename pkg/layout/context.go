package layout

import (
	"math"

	"github.com/leapstack-labs/leapfmt/pkg/core"
)

// unlimited is the width used to measure single-line renderings.
const unlimited = math.MaxInt32

// Context is the layout policy in force at one point of the tree. It is a
// value: deriving a context copies it, so a child never changes its parent.
type Context struct {
	cfg    *core.FormatConfig
	width  int
	role   core.ListRole
	flat   bool
	parent *Context
}

// NewContext returns the root context for cfg.
func NewContext(cfg *core.FormatConfig) Context {
	return Context{cfg: cfg, width: cfg.LineWidth}
}

// Config returns the resolved configuration.
func (c Context) Config() *core.FormatConfig { return c.cfg }

// Width returns the column the output should not pass.
func (c Context) Width() int { return c.width }

// Parent returns the context c was derived from, or nil at the root.
func (c Context) Parent() *Context { return c.parent }

// Role returns the role of the list being laid out.
func (c Context) Role() core.ListRole { return c.role }

// List returns the option set of the current list role.
func (c Context) List() core.ListConfig { return c.cfg.Lists.For(c.role) }

// WithWidth derives a context that ends at column w. The width never grows.
func (c Context) WithWidth(w int) Context {
	d := c.derive()
	d.width = min(c.width, w)
	return d
}

// WithRole derives a context for a list of the given role.
func (c Context) WithRole(r core.ListRole) Context {
	d := c.derive()
	d.role = r
	return d
}

// measure returns a fresh root context, without a width limit, used to
// render single-line forms.
func (c Context) measure() Context {
	return Context{cfg: c.cfg, width: unlimited, role: c.role, flat: true}
}

func (c Context) derive() Context {
	parent := c
	c.parent = &parent
	return c
}

// indentWidth is the configured indent step.
func (c Context) indentWidth() int { return c.cfg.Indent.Width }
