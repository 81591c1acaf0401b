// Package types models the column type system consumed by the checksum
// engine: a descriptor per column reporting orderability, floating-point-ness
// and the element/key/value/field types of composites.
package types

import (
	"strconv"
	"strings"
)

// Base type names of composites.
const (
	BaseArray = "array"
	BaseMap   = "map"
	BaseRow   = "row"
)

// orderable scalar bases: types with a total order, safe to array_sort before
// digesting.
var orderableScalars = map[string]bool{
	"boolean":   true,
	"tinyint":   true,
	"smallint":  true,
	"int":       true,
	"integer":   true,
	"bigint":    true,
	"real":      true,
	"double":    true,
	"decimal":   true,
	"varchar":   true,
	"char":      true,
	"varbinary": true,
	"date":      true,
	"time":      true,
	"timestamp": true,
}

// scalars with no total order but a defined checksum, compared as opaque
// digests only.
var unorderedScalars = map[string]bool{
	"json": true,
	"uuid": true,
}

// RowField is one member of a row type. Name is empty for positional fields.
type RowField struct {
	Name string
	Type *T
}

// T is an immutable type descriptor. Construct via Parse or the composite
// helpers; the zero value is not a valid type.
type T struct {
	base    string
	params  []string
	element *T
	key     *T
	value   *T
	fields  []RowField
}

func scalar(base string, params ...string) *T {
	return &T{base: base, params: params}
}

// Array returns the descriptor for array(element).
func Array(element *T) *T {
	return &T{base: BaseArray, element: element}
}

// Map returns the descriptor for map(key, value).
func Map(key, value *T) *T {
	return &T{base: BaseMap, key: key, value: value}
}

// Row returns the descriptor for a row with the given fields.
func Row(fields ...RowField) *T {
	return &T{base: BaseRow, fields: fields}
}

func (t *T) Base() string { return t.base }

func (t *T) IsArray() bool { return t.base == BaseArray }
func (t *T) IsMap() bool   { return t.base == BaseMap }
func (t *T) IsRow() bool   { return t.base == BaseRow }

// IsFloatingPoint reports whether the type is an approximate numeric type.
func (t *T) IsFloatingPoint() bool {
	return t.base == "double" || t.base == "real"
}

// IsDouble reports whether the type is already double precision; other
// floating types are cast to double before summation.
func (t *T) IsDouble() bool { return t.base == "double" }

func (t *T) Element() *T        { return t.element }
func (t *T) Key() *T            { return t.key }
func (t *T) Value() *T          { return t.value }
func (t *T) Fields() []RowField { return t.fields }

// Orderable reports whether the type has a total order. Arrays inherit it
// from their element, rows from all of their fields, maps never have one.
func (t *T) Orderable() bool {
	switch t.base {
	case BaseArray:
		return t.element.Orderable()
	case BaseMap:
		return false
	case BaseRow:
		for _, f := range t.fields {
			if !f.Type.Orderable() {
				return false
			}
		}
		return true
	default:
		return orderableScalars[t.base]
	}
}

// Supported reports whether the type, including every nested type, has a
// defined checksum strategy.
func (t *T) Supported() bool {
	switch t.base {
	case BaseArray:
		return t.element.Supported()
	case BaseMap:
		return t.key.Supported() && t.value.Supported()
	case BaseRow:
		for _, f := range t.fields {
			if !f.Type.Supported() {
				return false
			}
		}
		return true
	default:
		return orderableScalars[t.base] || unorderedScalars[t.base]
	}
}

// String renders the type back to its signature form.
func (t *T) String() string {
	switch t.base {
	case BaseArray:
		return "array(" + t.element.String() + ")"
	case BaseMap:
		return "map(" + t.key.String() + ", " + t.value.String() + ")"
	case BaseRow:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			if f.Name != "" {
				parts[i] = f.Name + " " + f.Type.String()
			} else {
				parts[i] = f.Type.String()
			}
		}
		return "row(" + strings.Join(parts, ", ") + ")"
	default:
		if len(t.params) > 0 {
			return t.base + "(" + strings.Join(t.params, ", ") + ")"
		}
		return t.base
	}
}

// Parse reads a type signature such as "bigint", "varchar(10)",
// "array(map(int, varchar))" or "row(i int, varchar, r row(double, b bigint))"
// into a descriptor.
func Parse(signature string) (*T, error) {
	p := &parser{input: signature}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, &ParseError{Signature: signature, Offset: p.pos, Reason: "trailing input"}
	}
	return t, nil
}

// ParseError reports a malformed type signature.
type ParseError struct {
	Signature string
	Offset    int
	Reason    string
}

func (e *ParseError) Error() string {
	return "invalid type signature " + strconv.Quote(e.Signature) + " at offset " +
		strconv.Itoa(e.Offset) + ": " + e.Reason
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(reason string) error {
	return &ParseError{Signature: p.input, Offset: p.pos, Reason: reason}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return strings.ToLower(p.input[start:p.pos])
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return p.fail("expected " + string(c))
	}
	p.pos++
	return nil
}

func (p *parser) parseType() (*T, error) {
	name := p.ident()
	if name == "" {
		return nil, p.fail("expected type name")
	}
	switch name {
	case BaseArray:
		if err := p.expect('('); err != nil {
			return nil, err
		}
		element, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return Array(element), nil
	case BaseMap:
		if err := p.expect('('); err != nil {
			return nil, err
		}
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return Map(key, value), nil
	case BaseRow:
		return p.parseRow()
	default:
		return scalar(name, p.parseParams()...), nil
	}
}

// parseParams consumes an optional numeric parameter list, e.g. the (10, 2)
// of decimal(10, 2).
func (p *parser) parseParams() []string {
	if p.peek() != '(' {
		return nil
	}
	p.pos++
	var params []string
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		params = append(params, p.input[start:p.pos])
		if p.peek() != ',' {
			break
		}
		p.pos++
	}
	if p.peek() == ')' {
		p.pos++
	}
	return params
}

func (p *parser) parseRow() (*T, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var fields []RowField
	for {
		field, err := p.parseRowField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if p.peek() != ',' {
			break
		}
		p.pos++
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return Row(fields...), nil
}

// parseRowField reads either "name type" or a bare anonymous "type".
func (p *parser) parseRowField() (RowField, error) {
	save := p.pos
	first := p.ident()
	if first == "" {
		return RowField{}, p.fail("expected row field")
	}
	// A second identifier means the first one was the field name. A '('
	// right after the first identifier means it was a parametric type.
	switch c := p.peek(); {
	case c == '(' || c == ',' || c == ')':
		p.pos = save
		t, err := p.parseType()
		if err != nil {
			return RowField{}, err
		}
		return RowField{Type: t}, nil
	default:
		t, err := p.parseType()
		if err != nil {
			return RowField{}, err
		}
		return RowField{Name: first, Type: t}, nil
	}
}
