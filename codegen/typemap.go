package codegen

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Python type names produced for scalar kinds.
const (
	pyBool  = "bool"
	pyFloat = "float"
	pyInt   = "int"
	pyStr   = "str"
	pyBytes = "bytes"
)

// UnsupportedKindError is returned when a field's kind has no Python mapping.
// It aborts the whole generation run.
type UnsupportedKindError struct {
	Field protoreflect.FullName
	Kind  protoreflect.Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("field %s: unsupported wire type %v (%d)", e.Field, e.Kind, int32(e.Kind))
}

// fieldType returns the Python type expression for fd, wrapping repeated
// fields in Sequence[...].
func (g *Generator) fieldType(fd protoreflect.FieldDescriptor) (string, error) {
	t, err := g.kindType(fd)
	if err != nil {
		return "", err
	}
	if fd.Cardinality() == protoreflect.Repeated {
		t = "Sequence[" + t + "]"
	}
	return t, nil
}

func (g *Generator) kindType(fd protoreflect.FieldDescriptor) (string, error) {
	switch kind := fd.Kind(); kind {
	case protoreflect.BoolKind:
		return pyBool, nil
	case protoreflect.DoubleKind, protoreflect.FloatKind:
		return pyFloat, nil
	case protoreflect.Int32Kind, protoreflect.Int64Kind,
		protoreflect.Uint32Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed32Kind, protoreflect.Fixed64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind,
		protoreflect.Sint32Kind, protoreflect.Sint64Kind:
		return pyInt, nil
	case protoreflect.StringKind:
		return pyStr, nil
	case protoreflect.BytesKind:
		return pyBytes, nil
	case protoreflect.MessageKind:
		return g.qualify(fd.Message().FullName()), nil
	case protoreflect.EnumKind:
		return g.qualify(fd.Enum().FullName()), nil
	default:
		// Includes GroupKind: groups have no Python binding type.
		return "", &UnsupportedKindError{Field: fd.FullName(), Kind: kind}
	}
}

// qualify rewrites a proto full name into the namespace the generated code
// imports it from. Localized string types live in their own module.
func (g *Generator) qualify(name protoreflect.FullName) string {
	s := string(name)
	if g.opts.ProtoPackage == "" {
		return s
	}
	ns := g.opts.BindingNamespace
	if g.opts.LocalizedMarker != "" && strings.Contains(s, g.opts.LocalizedMarker) {
		ns = g.opts.LocalizedNamespace
	}
	return strings.ReplaceAll(s, g.opts.ProtoPackage, ns)
}
