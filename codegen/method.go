package codegen

import (
	"sort"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Param is one data parameter of an unrolled wrapper.
type Param struct {
	Name string
	Type string
}

// Method describes the wrapper generated for one RPC.
type Method struct {
	// RPC is the method name as declared in the service.
	RPC string
	// Name is the Python method name.
	Name string
	// Index is the 1-based dispatch index passed to the backend.
	Index int
	// Unrolled reports whether the input message fields became parameters.
	Unrolled bool
	// Params holds the unrolled parameters, ordered by field number.
	Params []Param

	InputType  string
	OutputType string
	ReturnType string

	// ReturnField is the single output field returned in place of the
	// whole message, or empty.
	ReturnField string
}

// KeywordOnly reports whether callers must pass the parameters by name.
func (m *Method) KeywordOnly() bool {
	return m.Unrolled && len(m.Params) >= 2
}

// Signature returns the Python parameter list, receiver included.
func (m *Method) Signature(receiver string) string {
	args := []string{receiver}
	if !m.Unrolled {
		return strings.Join(append(args, "input: "+m.InputType), ", ")
	}
	if m.KeywordOnly() {
		args = append(args, "*")
	}
	for _, p := range m.Params {
		args = append(args, p.Name+": "+p.Type)
	}
	return strings.Join(args, ", ")
}

// Assignments returns the keyword arguments used to build the input message.
func (m *Method) Assignments() string {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Name + "=" + p.Name
	}
	return strings.Join(args, ", ")
}

// plan builds the Method for md at the given dispatch index.
func (g *Generator) plan(md protoreflect.MethodDescriptor, index int) (*Method, error) {
	in, out := md.Input(), md.Output()
	m := &Method{
		RPC:        string(md.Name()),
		Name:       MethodName(string(md.Name())),
		Index:      index,
		InputType:  g.qualify(in.FullName()),
		OutputType: g.qualify(out.FullName()),
	}

	if g.unroll(md) {
		m.Unrolled = true
		for _, fd := range fieldsByNumber(in) {
			t, err := g.fieldType(fd)
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, Param{Name: string(fd.Name()), Type: t})
		}
	}

	if fields := out.Fields(); fields.Len() == 1 {
		fd := fields.Get(0)
		t, err := g.fieldType(fd)
		if err != nil {
			return nil, err
		}
		m.ReturnType = t
		m.ReturnField = string(fd.Name())
	} else {
		m.ReturnType = m.OutputType
	}
	return m, nil
}

// unroll decides whether the input message of md is expanded into
// parameters. Messages following the simple-input naming convention and
// messages with fewer than two fields are unrolled, unless they carry a oneof
// or the method is explicitly kept opaque.
func (g *Generator) unroll(md protoreflect.MethodDescriptor) bool {
	in := md.Input()
	simple := (g.opts.SimpleInputSuffix != "" && strings.HasSuffix(string(in.Name()), g.opts.SimpleInputSuffix)) ||
		in.Fields().Len() < 2
	return simple && !hasOneof(in) && !g.skip[string(md.Name())]
}

// hasOneof reports whether md declares a oneof. Synthetic oneofs backing
// proto3 optional fields do not count.
func hasOneof(md protoreflect.MessageDescriptor) bool {
	oneofs := md.Oneofs()
	for i := 0; i < oneofs.Len(); i++ {
		if !oneofs.Get(i).IsSynthetic() {
			return true
		}
	}
	return false
}

func fieldsByNumber(md protoreflect.MessageDescriptor) []protoreflect.FieldDescriptor {
	fields := md.Fields()
	sorted := make([]protoreflect.FieldDescriptor, fields.Len())
	for i := range sorted {
		sorted[i] = fields.Get(i)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Number() < sorted[j].Number()
	})
	return sorted
}
