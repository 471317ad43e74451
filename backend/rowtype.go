package qbackend

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Role is one field of a model's rows as the frontend sees it.
type Role struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var (
	knownRowTypesMu sync.Mutex
	knownRowTypes   = make(map[reflect.Type][]Role)
)

var (
	anyObjectType     = reflect.TypeOf((*AnyObject)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	objectType        = reflect.TypeOf(Object{})
	modelType         = reflect.TypeOf(Model{})
)

func typeShouldIgnoreField(field reflect.StructField) bool {
	if field.PkgPath != "" || field.Tag.Get("qbackend") == "-" {
		// Unexported or ignored field
		return true
	} else if field.Tag.Get("json") == "-" {
		// Not encoded by JSON, so never seen by the frontend
		return true
	} else if field.Anonymous && (field.Type == objectType || field.Type == modelType) {
		return true
	} else if field.Type.Kind() == reflect.Func {
		return true
	}
	return false
}

func typeFieldName(field reflect.StructField) string {
	name := field.Name
	if len(name) > 0 {
		name = strings.ToLower(string(name[0])) + name[1:]
	}
	if tag := field.Tag.Get("json"); len(tag) > 0 {
		tags := strings.Split(tag, ",")
		if len(tags) > 0 && len(tags[0]) > 0 {
			name = tags[0]
		}
	}
	return name
}

func typeInfoTypeName(t reflect.Type) string {
	if t.Implements(anyObjectType) {
		return "object"
	} else if t.Implements(textMarshalerType) {
		return "string"
	}

	switch t.Kind() {
	case reflect.Ptr:
		return typeInfoTypeName(t.Elem())
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.String:
		return "string"
	case reflect.Array, reflect.Slice:
		return "array"
	case reflect.Map, reflect.Struct:
		return "map"
	default:
		return "var"
	}
}

// RowRoles returns the roles of a model whose rows are values of row's
// struct type: one role per exported field that JSON encodes, named like the
// encoded field. Fields of embedded structs follow the struct's own fields.
func RowRoles(row interface{}) ([]Role, error) {
	t := reflect.TypeOf(row)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row type %v is not a struct", t)
	}

	knownRowTypesMu.Lock()
	defer knownRowTypesMu.Unlock()
	if roles, exists := knownRowTypes[t]; exists {
		return roles, nil
	}

	var roles []Role
	seen := make(map[string]bool)
	typeFieldsToRoles(&roles, seen, t)
	knownRowTypes[t] = roles
	return roles, nil
}

func typeFieldsToRoles(roles *[]Role, seen map[string]bool, t reflect.Type) {
	var anonStructs []reflect.StructField

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if typeShouldIgnoreField(field) {
			continue
		} else if field.Anonymous && field.Tag.Get("json") == "" {
			// Recurse into these at the end for breadth-first
			anonStructs = append(anonStructs, field)
			continue
		}
		name := typeFieldName(field)
		if seen[name] {
			continue
		}
		seen[name] = true
		*roles = append(*roles, Role{Name: name, Type: typeInfoTypeName(field.Type)})
	}

	for _, ast := range anonStructs {
		at := ast.Type
		if at.Kind() == reflect.Ptr {
			at = at.Elem()
		}
		if at.Kind() == reflect.Struct {
			typeFieldsToRoles(roles, seen, at)
		}
	}
}

// RoleNamesOf returns the names of RowRoles(row), for use as a model's
// RoleNames. It panics if row is not a struct.
func RoleNamesOf(row interface{}) []string {
	roles, err := RowRoles(row)
	if err != nil {
		panic(err)
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return names
}
