package gl

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/internal/wasmtest"
	"github.com/quadkit/quadhost/plugin"
)

func registeredFunc(t *testing.T, table *plugin.Table, name string) plugin.Func {
	t.Helper()
	for _, fn := range table.Funcs() {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not registered", name)
	return plugin.Func{}
}

func TestLocationLookups_BadNamePointerIsSentinel(t *testing.T) {
	l, _ := newTestLayer(t)
	table := plugin.NewTable(zap.NewNop())
	if err := Plugin(l, zap.NewNop()).Register(table); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, wasmtest.NewModule().ExportMemory(1).Build())
	if err != nil {
		t.Fatal(err)
	}

	prog := l.NewProgram()
	for _, name := range []string{"gl_uniform_location", "gl_attrib_location"} {
		fn := registeredFunc(t, table, name)
		// A name pointer past the end of linear memory answers -1.
		stack := []uint64{uint64(prog), 1 << 20, 8}
		fn.Handler(ctx, mod, stack)
		if got := int32(uint32(stack[0])); got != -1 {
			t.Fatalf("%s with bad name pointer = %d, want -1", name, got)
		}
	}
}
