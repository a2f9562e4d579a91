package plugin

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// Value type shorthands for call table signatures.
const (
	I32 = api.ValueTypeI32
	I64 = api.ValueTypeI64
	F32 = api.ValueTypeF32
	F64 = api.ValueTypeF64
)

// Types builds a value type list for Define.
func Types(t ...api.ValueType) []api.ValueType { return t }

// Func is one named entry in the shared call table.
type Func struct {
	Handler api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Table is the merged call table exposed to the guest as its import module.
// Names are flat; the table is assembled once, before instantiation.
type Table struct {
	funcs map[string]Func
	order []string
	log   *zap.Logger
}

// NewTable creates an empty call table.
func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{
		funcs: make(map[string]Func),
		log:   log,
	}
}

// Define adds a function to the table. Redefining a name is a registration
// error: two plugins claiming one entry point is a wiring bug, not a
// runtime condition.
func (t *Table) Define(name string, fn api.GoModuleFunc, params, results []api.ValueType) error {
	if _, dup := t.funcs[name]; dup {
		return errors.Registration("", "duplicate call table entry "+name)
	}
	t.funcs[name] = Func{
		Name:    name,
		Handler: fn,
		Params:  params,
		Results: results,
	}
	t.order = append(t.order, name)
	return nil
}

// Has reports whether name is present in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.funcs[name]
	return ok
}

// Funcs returns all entries in registration order.
func (t *Table) Funcs() []Func {
	out := make([]Func, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.funcs[name])
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.funcs) }

// Definer accumulates Define errors across one plugin's registration so
// register functions read as a flat list of definitions.
type Definer struct {
	t   *Table
	err error
}

// Definer starts an accumulating definition run against the table.
func (t *Table) Definer() *Definer {
	return &Definer{t: t}
}

// Define adds a function, keeping the first error encountered.
func (d *Definer) Define(name string, fn api.GoModuleFunc, params, results []api.ValueType) *Definer {
	if d.err == nil {
		d.err = d.t.Define(name, fn, params, results)
	}
	return d
}

// Err returns the first definition error, if any.
func (d *Definer) Err() error { return d.err }
