package quadnet

import (
	"context"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
	"github.com/quadkit/quadhost/registry"
)

// Plugin exposes the socket and the HTTP client to the guest. Received
// frames and response bodies travel as object table handles since their
// size is unknown to the guest at call time.
func Plugin(sock *Socket, client *Client, objects *registry.ObjectTable, log *zap.Logger) plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "net",
		Version: *semver.New("1.0.0"),
		Register: func(t *plugin.Table) error {
			return register(t, sock, client, objects, log)
		},
	}
}

func register(t *plugin.Table, sock *Socket, client *Client, objects *registry.ObjectTable, log *zap.Logger) error {
	d := t.Definer()

	d.Define("ws_connect", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		url, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			log.Warn("bad ws_connect url", zap.Error(err))
			return
		}
		sock.Connect(url)
	}, plugin.Types(plugin.I32, plugin.I32), nil)

	d.Define("ws_is_connected", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = 0
		if sock.IsConnected() {
			stack[0] = 1
		}
	}, nil, plugin.Types(plugin.I32))

	d.Define("ws_send", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		data, err := guestmem.Bytes(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			log.Warn("bad ws_send payload", zap.Error(err))
			stack[0] = 0
			return
		}
		stack[0] = 0
		if sock.Send(data, uint32(stack[2]) != 0) {
			stack[0] = 1
		}
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32), plugin.Types(plugin.I32))

	d.Define("ws_try_recv", func(ctx context.Context, mod api.Module, stack []uint64) {
		msg, ok := sock.TryRecv()
		if !ok {
			stack[0] = 0
			return
		}
		rec := objects.NewRecord()
		if msg.IsText {
			objects.SetField(rec, "text", objects.NewString(string(msg.Data)))
		} else {
			objects.SetField(rec, "data", objects.NewBuffer(msg.Data))
		}
		stack[0] = uint64(rec)
	}, nil, plugin.Types(plugin.I32))

	d.Define("http_make_request", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		method, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			log.Warn("bad http method", zap.Error(err))
			stack[0] = 0
			return
		}
		url, err := guestmem.String(mem, uint32(stack[2]), uint32(stack[3]))
		if err != nil {
			log.Warn("bad http url", zap.Error(err))
			stack[0] = 0
			return
		}
		body, err := guestmem.Bytes(mem, uint32(stack[4]), uint32(stack[5]))
		if err != nil {
			log.Warn("bad http body", zap.Error(err))
			stack[0] = 0
			return
		}
		headers := recordStrings(objects, registry.Handle(stack[6]))
		stack[0] = uint64(client.MakeRequest(method, url, body, headers))
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32), plugin.Types(plugin.I32))

	d.Define("http_try_recv", func(ctx context.Context, mod api.Module, stack []uint64) {
		resp, ok := client.TryRecv(RequestID(stack[0]))
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = uint64(objects.NewBuffer(resp.Body))
	}, plugin.Types(plugin.I32), plugin.Types(plugin.I32))

	return d.Err()
}

// recordStrings flattens a record of string objects into a header map.
// Handle 0 means no headers; non-string fields are skipped by the object
// table's own diagnostics.
func recordStrings(objects *registry.ObjectTable, h registry.Handle) map[string]string {
	if h == 0 {
		return nil
	}
	obj := objects.Get(h)
	if obj == nil || obj.Kind != registry.KindRecord {
		return nil
	}
	out := make(map[string]string, len(obj.Fields))
	for name, child := range obj.Fields {
		if value, ok := objects.String(child); ok {
			out[name] = value
		}
	}
	return out
}
