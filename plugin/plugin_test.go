package plugin

import (
	"context"
	"testing"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quadkit/quadhost/internal/wasmtest"
)

func TestTable_Define(t *testing.T) {
	table := NewTable(nil)

	nop := func(ctx context.Context, mod api.Module, stack []uint64) {}
	if err := table.Define("audio_init", nop, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := table.Define("audio_init", nop, nil, nil); err == nil {
		t.Fatal("duplicate define must fail")
	}

	if !table.Has("audio_init") {
		t.Error("Has returned false for defined name")
	}
	if table.Has("missing") {
		t.Error("Has returned true for missing name")
	}
}

func TestTable_FuncsInRegistrationOrder(t *testing.T) {
	table := NewTable(nil)
	nop := func(ctx context.Context, mod api.Module, stack []uint64) {}
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if err := table.Define(n, nop, nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	funcs := table.Funcs()
	for i, f := range funcs {
		if f.Name != names[i] {
			t.Fatalf("funcs[%d] = %q, want %q", i, f.Name, names[i])
		}
	}
}

func TestRegistry_AddAndRegister(t *testing.T) {
	reg := NewRegistry(nil)

	registered := 0
	d := Descriptor{
		Name:    "audio",
		Version: *semver.New("2.0.0"),
		Register: func(t *Table) error {
			registered++
			return t.Define("audio_init", func(ctx context.Context, mod api.Module, stack []uint64) {}, nil, nil)
		},
	}
	if err := reg.Add(d); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(d); err == nil {
		t.Fatal("duplicate plugin name must fail")
	}
	if err := reg.Add(Descriptor{}); err == nil {
		t.Fatal("empty plugin name must fail")
	}

	table := NewTable(nil)
	if err := reg.RegisterAll(table); err != nil {
		t.Fatal(err)
	}
	if registered != 1 {
		t.Fatalf("Register invoked %d times, want 1", registered)
	}
	if !table.Has("audio_init") {
		t.Error("table missing registered function")
	}
}

func TestVersionCodec(t *testing.T) {
	v := semver.Version{Major: 2, Minor: 1, Patch: 3}
	got := DecodeVersion(EncodeVersion(v))
	if got != v {
		t.Fatalf("round trip = %v, want %v", got, v)
	}
}

func TestNegotiateVersions_MismatchLoggedOnce(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	// Guest declares audio 1.0.0 while the host ships audio 2.0.0.
	guest := wasmtest.NewModule().
		ExportConstFunc("audio_version", EncodeVersion(*semver.New("1.0.0"))).
		Build()
	mod, err := r.Instantiate(ctx, guest)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	reg := NewRegistry(zap.New(core))
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.Add(Descriptor{Name: "audio", Version: *semver.New("2.0.0")}))
	must(reg.Add(Descriptor{Name: "quad_net", Version: *semver.New("1.0.0")}))

	reg.NegotiateVersions(ctx, mod)

	entries := logs.FilterMessage("plugin version mismatch").All()
	if len(entries) != 1 {
		t.Fatalf("mismatch logged %d times, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["plugin"] != "audio" {
		t.Errorf("plugin field = %v", fields["plugin"])
	}
	if fields["host"] != "2.0.0" {
		t.Errorf("host field = %v", fields["host"])
	}
	if fields["guest"] != "1.0.0" {
		t.Errorf("guest field = %v", fields["guest"])
	}
}

func TestNegotiateVersions_MatchIsSilent(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	guest := wasmtest.NewModule().
		ExportConstFunc("audio_version", EncodeVersion(*semver.New("2.0.1"))).
		Build()
	mod, err := r.Instantiate(ctx, guest)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	reg := NewRegistry(zap.New(core))
	// Patch-level differences are backward-compatible, no warning.
	if err := reg.Add(Descriptor{Name: "audio", Version: *semver.New("2.0.0")}); err != nil {
		t.Fatal(err)
	}

	reg.NegotiateVersions(ctx, mod)

	if n := logs.FilterMessage("plugin version mismatch").Len(); n != 0 {
		t.Fatalf("unexpected mismatch warnings: %d", n)
	}
}

func TestInitAll(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, wasmtest.NewModule().ExportMemory(1).Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	inited := 0
	reg := NewRegistry(nil)
	err = reg.Add(Descriptor{
		Name:    "fs",
		Version: *semver.New("1.0.0"),
		Init: func(ctx context.Context, m api.Module) error {
			inited++
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.InitAll(ctx, mod); err != nil {
		t.Fatal(err)
	}
	if inited != 1 {
		t.Fatalf("Init invoked %d times, want 1", inited)
	}
}
