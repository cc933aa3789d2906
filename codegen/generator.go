// Package codegen renders Python wrappers for the methods of a protobuf
// service. Each wrapper packs its arguments into the request message, hands
// the encoded bytes to the backend's command dispatcher under the method's
// dispatch index and decodes the reply.
package codegen

import (
	"strings"

	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Options control naming and shape of the generated code.
type Options struct {
	// ProtoPackage is the proto package prefix rewritten into BindingNamespace,
	// e.g. "backend_proto".
	ProtoPackage string
	// BindingNamespace is the Python name the generated module is imported as.
	BindingNamespace string
	// LocalizedMarker selects type names that live in LocalizedNamespace.
	LocalizedMarker    string
	LocalizedNamespace string

	// SimpleInputSuffix marks input messages that are always unrolled.
	SimpleInputSuffix string
	// SkipUnroll lists RPC names whose input stays a single message argument.
	SkipUnroll []string

	// Receiver is the first parameter of every wrapper.
	Receiver string
	// Dispatch is the callable invoked with (index, input).
	Dispatch string
	// Indent is one level of indentation.
	Indent string
}

// DefaultOptions returns the options used for the desktop backend.
func DefaultOptions() Options {
	return Options{
		ProtoPackage:       "backend_proto",
		BindingNamespace:   "pb",
		LocalizedMarker:    "FluentString",
		LocalizedNamespace: "anki.fluent_pb2",
		SimpleInputSuffix:  "In",
		SkipUnroll:         []string{"TranslateString"},
		Receiver:           "self",
		Dispatch:           "self._run_command",
		Indent:             "    ",
	}
}

// Generator renders service descriptors. It holds no state between calls.
type Generator struct {
	opts Options
	skip map[string]bool
}

// New returns a Generator using opts.
func New(opts Options) *Generator {
	skip := make(map[string]bool, len(opts.SkipUnroll))
	for _, name := range opts.SkipUnroll {
		skip[name] = true
	}
	return &Generator{opts: opts, skip: skip}
}

// Plan returns one Method per RPC of svc, in declaration order. The method at
// position i is assigned dispatch index i+1.
func (g *Generator) Plan(svc protoreflect.ServiceDescriptor) ([]*Method, error) {
	methods := svc.Methods()
	plans := make([]*Method, 0, methods.Len())
	for i := 0; i < methods.Len(); i++ {
		m, err := g.plan(methods.Get(i), i+1)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("Planned method",
			zap.String("rpc", m.RPC),
			zap.String("name", m.Name),
			zap.Int("index", m.Index),
			zap.Bool("unrolled", m.Unrolled))
		plans = append(plans, m)
	}
	return plans, nil
}

// Render returns the rendered wrapper of each planned method, in order.
func (g *Generator) Render(methods []*Method) ([]string, error) {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		s, err := g.renderMethod(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Generate plans and renders svc, returning the wrappers separated by blank
// lines along with the plans they were rendered from.
func (g *Generator) Generate(svc protoreflect.ServiceDescriptor) (string, []*Method, error) {
	methods, err := g.Plan(svc)
	if err != nil {
		return "", nil, err
	}
	rendered, err := g.Render(methods)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(rendered, "\n"), methods, nil
}
