package plugin

import (
	"context"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// Descriptor declares one bridge plugin: a named, versioned group of call
// table functions. Register runs once before guest instantiation to merge
// the plugin's functions into the shared table; Init, when set, runs once
// after instantiation.
type Descriptor struct {
	Register func(*Table) error
	Init     func(ctx context.Context, mod api.Module) error
	Name     string
	Version  semver.Version
}

// Registry holds the descriptors attached to one bridge context.
type Registry struct {
	descs []Descriptor
	log   *zap.Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log}
}

// Add registers a descriptor. Names must be unique and non-empty.
func (r *Registry) Add(d Descriptor) error {
	if d.Name == "" {
		return errors.Registration("", "plugin name cannot be empty")
	}
	for _, existing := range r.descs {
		if existing.Name == d.Name {
			return errors.Registration(d.Name, "plugin already registered")
		}
	}
	r.descs = append(r.descs, d)
	return nil
}

// RegisterAll runs every descriptor's Register against the shared table.
func (r *Registry) RegisterAll(t *Table) error {
	for _, d := range r.descs {
		if d.Register == nil {
			continue
		}
		if err := d.Register(t); err != nil {
			return errors.Wrap(errors.PhaseLink, errors.KindRegistration, err, d.Name)
		}
		r.log.Debug("plugin registered",
			zap.String("plugin", d.Name),
			zap.String("version", d.Version.String()))
	}
	return nil
}

// InitAll runs every descriptor's Init against the instantiated guest.
func (r *Registry) InitAll(ctx context.Context, mod api.Module) error {
	for _, d := range r.descs {
		if d.Init == nil {
			continue
		}
		if err := d.Init(ctx, mod); err != nil {
			return errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, d.Name)
		}
	}
	return nil
}

// NegotiateVersions compares each plugin's host version against the guest's
// declared counterpart, exported as "<name>_version" returning a packed
// (major<<24)|(minor<<16)|patch value. A mismatch on major or minor logs one
// advisory warning per plugin; load always proceeds, since most mismatches
// are backward-compatible.
func (r *Registry) NegotiateVersions(ctx context.Context, mod api.Module) {
	for _, d := range r.descs {
		fn := mod.ExportedFunction(d.Name + "_version")
		if fn == nil {
			continue
		}
		res, err := fn.Call(ctx)
		if err != nil || len(res) == 0 {
			r.log.Warn("guest version export failed",
				zap.String("plugin", d.Name),
				zap.Error(err))
			continue
		}
		guest := DecodeVersion(uint32(res[0]))
		if guest.Major != d.Version.Major || guest.Minor != d.Version.Minor {
			r.log.Warn("plugin version mismatch",
				zap.String("plugin", d.Name),
				zap.String("host", d.Version.String()),
				zap.String("guest", guest.String()))
		}
	}
}

// DecodeVersion unpacks the guest's (major<<24)|(minor<<16)|patch encoding.
func DecodeVersion(packed uint32) semver.Version {
	return semver.Version{
		Major: int64(packed >> 24),
		Minor: int64((packed >> 16) & 0xFF),
		Patch: int64(packed & 0xFFFF),
	}
}

// EncodeVersion packs a semver version into the guest's u32 encoding.
func EncodeVersion(v semver.Version) uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Patch)&0xFFFF
}
