package recast

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zoobzio/sentinel"
)

// tagName is the struct tag read for field options:
//
//	`recast:"name,noinit,noencode,required,ref=TypeName"`
//
// A "-" name removes the field. Without a name the json tag name is used,
// then the Go field name.
const tagName = "recast"

func init() {
	sentinel.Tag(tagName)
}

// Base is the universal base record. Embedding it is optional; every
// registered record descends from it. Decoding into Base considers every
// registered record as a candidate.
type Base struct{}

var baseType = reflect.TypeFor[Base]()

// Constructor builds a record from its init arguments and returns a
// pointer to it. It must reject unknown or missing arguments with an error.
type Constructor func(args *Map) (any, error)

// Field describes one field of a record.
type Field struct {
	Name     string  // Tree key
	GoName   string  // Go field name
	Index    []int   // reflect.Value.FieldByIndex path
	Ref      TypeRef // Declared type
	Init     bool    // Passed to the constructor; false means assigned after construction
	Encode   bool    // Included by the encoder
	Required bool    // Constructor fails when absent
}

// Schema describes a record type.
type Schema struct {
	Name   string
	Type   reflect.Type
	Fields []Field

	// Ancestors are embedded record types, nearest first, excluding Base.
	Ancestors []reflect.Type

	// DecodeIntoSubtypes makes undeclared keys select a subtype rather
	// than being dropped when the caller leaves the drop flag unset.
	DecodeIntoSubtypes bool

	constructor Constructor
	byName      map[string]int
	initNames   map[string]struct{}
}

// Field returns the field with the given tree key.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// InitFields returns the number of fields passed to the constructor.
func (s *Schema) InitFields() int {
	return len(s.initNames)
}

// Abstract reports whether the schema is an interface or Base.
func (s *Schema) Abstract() bool {
	return s.Type == baseType || s.Type.Kind() == reflect.Interface
}

// is reports whether the schema's type is rt or descends from it.
func (s *Schema) is(rt reflect.Type) bool {
	if s.Type == rt || rt == baseType {
		return true
	}
	if rt.Kind() == reflect.Interface {
		return reflect.PointerTo(s.Type).Implements(rt)
	}
	for _, a := range s.Ancestors {
		if a == rt {
			return true
		}
	}
	return false
}

// covers reports whether every name is a constructor field of the schema.
func (s *Schema) covers(names []string) bool {
	for _, n := range names {
		if _, ok := s.initNames[n]; !ok {
			return false
		}
	}
	return true
}

// construct builds the record from args using the custom constructor or
// by assigning each argument to its field.
func (s *Schema) construct(args *Map) (any, error) {
	if s.constructor != nil {
		return s.constructor(args)
	}
	if s.Abstract() {
		return nil, fmt.Errorf("%s is abstract and has no constructor", s.Name)
	}

	ptr := reflect.New(s.Type)
	var errs []error
	args.Range(func(key string, value any) bool {
		f, ok := s.Field(key)
		if !ok || !f.Init {
			errs = append(errs, fmt.Errorf("unexpected argument %q", key))
			return true
		}
		if err := assign(ptr.Elem().FieldByIndex(f.Index), value); err != nil {
			errs = append(errs, fmt.Errorf("argument %q: %w", key, err))
		}
		return true
	})
	for _, f := range s.Fields {
		if f.Init && f.Required && !args.Has(f.Name) {
			errs = append(errs, fmt.Errorf("missing required argument %q", f.Name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ptr.Interface(), nil
}

// tagOptions are the parsed options of a recast tag.
type tagOptions struct {
	name     string
	skip     bool
	noInit   bool
	noEncode bool
	required bool
	ref      string
}

func parseTag(tag reflect.StructTag, goName string) tagOptions {
	opts := tagOptions{name: goName}
	raw, ok := tag.Lookup(tagName)
	if !ok {
		if jsonTag := tag.Get("json"); jsonTag != "" {
			name, _, _ := strings.Cut(jsonTag, ",")
			if name == "-" {
				opts.skip = true
			} else if name != "" {
				opts.name = name
			}
		}
		return opts
	}

	parts := strings.Split(raw, ",")
	switch parts[0] {
	case "-":
		if len(parts) == 1 {
			opts.skip = true
		} else {
			opts.name = "-"
		}
	case "":
	default:
		opts.name = parts[0]
	}
	for _, p := range parts[1:] {
		switch {
		case p == "noinit":
			opts.noInit = true
		case p == "noencode":
			opts.noEncode = true
		case p == "required":
			opts.required = true
		case strings.HasPrefix(p, "ref="):
			opts.ref = strings.TrimPrefix(p, "ref=")
		}
	}
	return opts
}

// scanStruct returns field metadata for a struct type. Metadata already
// scanned by sentinel is reused when it matches rt; its cache is keyed by
// bare type name, so a same-named type from another scope falls back to
// reflection. Sentinel skips unexported fields, so unexported embedded
// structs are merged back in declaration order.
func scanStruct(rt reflect.Type) sentinel.Metadata {
	if rt.Name() != "" {
		if spec, ok := sentinel.Lookup(rt.Name()); ok && describes(spec, rt) {
			return withHiddenEmbeds(spec, rt)
		}
	}

	spec := sentinel.Metadata{TypeName: rt.Name(), PackageName: rt.PkgPath()}
	for i := 0; i < rt.NumField(); i++ {
		if sf := rt.Field(i); sf.IsExported() || hiddenEmbed(sf) {
			spec.Fields = append(spec.Fields, fieldMetadata(sf))
		}
	}
	return spec
}

// describes reports whether spec lists exactly the exported fields of rt.
func describes(spec sentinel.Metadata, rt reflect.Type) bool {
	if spec.TypeName != rt.Name() || spec.PackageName != rt.PkgPath() {
		return false
	}
	exported := 0
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			exported++
		}
	}
	if exported != len(spec.Fields) {
		return false
	}
	for _, fm := range spec.Fields {
		if len(fm.Index) != 1 || fm.Index[0] >= rt.NumField() {
			return false
		}
		sf := rt.Field(fm.Index[0])
		if sf.Name != fm.Name || sf.Type != fm.ReflectType {
			return false
		}
	}
	return true
}

func withHiddenEmbeds(spec sentinel.Metadata, rt reflect.Type) sentinel.Metadata {
	fields := make([]sentinel.FieldMetadata, 0, len(spec.Fields))
	fields = append(fields, spec.Fields...)
	for i := 0; i < rt.NumField(); i++ {
		if sf := rt.Field(i); hiddenEmbed(sf) {
			fields = append(fields, fieldMetadata(sf))
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Index[0] < fields[j].Index[0]
	})
	spec.Fields = fields
	return spec
}

// hiddenEmbed reports an unexported embedded struct, whose exported fields
// are still promoted.
func hiddenEmbed(sf reflect.StructField) bool {
	return !sf.IsExported() && sf.Anonymous && sf.Type.Kind() == reflect.Struct
}

func fieldMetadata(sf reflect.StructField) sentinel.FieldMetadata {
	fm := sentinel.FieldMetadata{
		Name:        sf.Name,
		Type:        sf.Type.String(),
		ReflectType: sf.Type,
		Index:       sf.Index,
		Kind:        sentinel.KindScalar,
		Tags:        map[string]string{},
	}
	if val := sf.Tag.Get(tagName); val != "" {
		fm.Tags[tagName] = val
	}
	switch sf.Type.Kind() {
	case reflect.Struct:
		fm.Kind = sentinel.KindStruct
	case reflect.Ptr:
		fm.Kind = sentinel.KindPointer
	case reflect.Slice, reflect.Array:
		fm.Kind = sentinel.KindSlice
	case reflect.Map:
		fm.Kind = sentinel.KindMap
	case reflect.Interface:
		fm.Kind = sentinel.KindInterface
	}
	return fm
}

// buildSchema scans a struct type into a Schema. Embedded structs without
// a tag name are flattened ahead of the type's own fields and recorded as
// ancestors; a field redeclared by a descendant replaces the inherited one
// in place.
func buildSchema(rt reflect.Type) (*Schema, error) {
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotRecord, rt)
	}

	s := &Schema{
		Name:      rt.Name(),
		Type:      rt,
		byName:    make(map[string]int),
		initNames: make(map[string]struct{}),
	}
	if s.Name == "" {
		s.Name = rt.String()
	}
	if err := s.collect(rt, nil, map[reflect.Type]bool{rt: true}); err != nil {
		return nil, err
	}
	s.Ancestors = ancestorsOf(rt)

	for _, f := range s.Fields {
		if f.Init {
			s.initNames[f.Name] = struct{}{}
		}
	}
	return s, nil
}

func (s *Schema) collect(rt reflect.Type, prefix []int, seen map[reflect.Type]bool) error {
	spec := scanStruct(rt)

	var own []sentinel.FieldMetadata
	for _, fm := range spec.Fields {
		sf := rt.FieldByIndex(fm.Index)
		opts := parseTag(sf.Tag, fm.Name)
		if opts.skip {
			continue
		}
		if sf.Anonymous && fm.Kind == sentinel.KindStruct && sf.Tag.Get(tagName) == "" {
			if fm.ReflectType == baseType || seen[fm.ReflectType] {
				continue
			}
			seen[fm.ReflectType] = true
			if err := s.collect(fm.ReflectType, join(prefix, fm.Index), seen); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		own = append(own, fm)
	}

	for _, fm := range own {
		sf := rt.FieldByIndex(fm.Index)
		opts := parseTag(sf.Tag, fm.Name)
		f := Field{
			Name:     opts.name,
			GoName:   fm.Name,
			Index:    join(prefix, fm.Index),
			Ref:      inspect(fm.ReflectType, opts.ref),
			Init:     !opts.noInit,
			Encode:   !opts.noEncode,
			Required: opts.required,
		}
		if i, ok := s.byName[f.Name]; ok {
			s.Fields[i] = f
			continue
		}
		s.byName[f.Name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func join(prefix, index []int) []int {
	out := make([]int, 0, len(prefix)+len(index))
	out = append(out, prefix...)
	return append(out, index...)
}

// ancestorsOf lists embedded struct types breadth first, nearest first.
func ancestorsOf(rt reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := map[reflect.Type]bool{rt: true, baseType: true}
	queue := []reflect.Type{rt}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := 0; i < cur.NumField(); i++ {
			sf := cur.Field(i)
			if !sf.Anonymous || sf.Type.Kind() != reflect.Struct || seen[sf.Type] {
				continue
			}
			if opts := parseTag(sf.Tag, sf.Name); opts.skip || sf.Tag.Get(tagName) != "" {
				continue
			}
			seen[sf.Type] = true
			out = append(out, sf.Type)
			queue = append(queue, sf.Type)
		}
	}
	return out
}
