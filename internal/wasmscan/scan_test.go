package wasmscan

import (
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/quadkit/quadhost/internal/wasmtest"
)

func TestFuncImports(t *testing.T) {
	bin := wasmtest.NewModule().
		Import("env", "gl_clear", []api.ValueType{api.ValueTypeI32}, nil).
		Import("env", "audio_play_buffer",
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeF32, api.ValueTypeF32, api.ValueTypeF32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Import("env", "obscure_call", nil, []api.ValueType{api.ValueTypeI64}).
		ExportMemory(1).
		ExportNopFunc("frame").
		Build()

	imports := FuncImports(bin)
	if len(imports) != 3 {
		t.Fatalf("imports = %d, want 3", len(imports))
	}

	first := imports[0]
	if first.Module != "env" || first.Name != "gl_clear" {
		t.Errorf("first import = %s.%s", first.Module, first.Name)
	}
	if len(first.Params) != 1 || first.Params[0] != api.ValueTypeI32 || len(first.Results) != 0 {
		t.Errorf("gl_clear signature wrong: %+v", first)
	}

	play := imports[1]
	if len(play.Params) != 5 || play.Params[1] != api.ValueTypeF32 {
		t.Errorf("audio_play_buffer params wrong: %+v", play.Params)
	}
	if len(play.Results) != 1 || play.Results[0] != api.ValueTypeI32 {
		t.Errorf("audio_play_buffer results wrong: %+v", play.Results)
	}

	if got := imports[2].Results; len(got) != 1 || got[0] != api.ValueTypeI64 {
		t.Errorf("obscure_call results wrong: %+v", got)
	}
}

func TestFuncImports_NoImports(t *testing.T) {
	bin := wasmtest.NewModule().ExportNopFunc("frame").Build()
	if got := FuncImports(bin); len(got) != 0 {
		t.Fatalf("imports = %v, want none", got)
	}
}

func TestFuncImports_Garbage(t *testing.T) {
	if got := FuncImports([]byte{0, 1, 2}); got != nil {
		t.Fatalf("short input should yield nil, got %v", got)
	}
	if got := FuncImports(append([]byte("\x00asm\x01\x00\x00\x00"), 0xFF, 0xFF)); len(got) != 0 {
		t.Fatalf("malformed input should yield nothing, got %v", got)
	}
}
