package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Values handed to the executor are field maps keyed by schema field name, []any
// lists, leaves (string, bool, ints) or lazy values computed only when selected.
type lazy func() any

// errNull reports a null in a non-null position; the cause is already in the errors
var errNull = errors.New("null value in non-null position")

// resultObject keeps the response fields in selection order
type resultObject []resultField

type resultField struct {
	key   string
	value any
}

func (o resultObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// execution runs one validated operation
type execution struct {
	ctx       context.Context
	schema    *ast.Schema
	doc       *ast.QueryDocument
	vars      map[string]any
	resolvers map[string]fieldResolver
	errs      gqlerror.List
}

type collectedField struct {
	key   string
	field *ast.Field
}

// run executes the query operation; data is nil when a non-null root field failed
func (e *execution) run(op *ast.OperationDefinition) any {
	data, err := e.executeSelection(op.SelectionSet, e.schema.Query, nil, nil)
	if err != nil {
		return nil
	}
	return data
}

func (e *execution) executeSelection(set ast.SelectionSet, def *ast.Definition, source map[string]any, path ast.Path) (resultObject, error) {
	fields := e.collectFields(set, def)
	out := make(resultObject, 0, len(fields))
	for _, f := range fields {
		value, err := e.executeField(f.field, def, source, appendPath(path, ast.PathName(f.key)))
		if err != nil {
			return nil, err
		}
		out = append(out, resultField{key: f.key, value: value})
	}
	return out, nil
}

func (e *execution) executeField(field *ast.Field, parent *ast.Definition, source map[string]any, path ast.Path) (any, error) {
	if field.Name == "__typename" {
		return parent.Name, nil
	}

	var value any
	if parent == e.schema.Query {
		v, err := e.resolveRoot(field)
		if err != nil {
			return e.fieldError(field, field.Definition.Type, path, e.present(err))
		}
		value = v
	} else {
		value = source[field.Name]
	}

	return e.completeValue(field, field.Definition.Type, value, path)
}

func (e *execution) resolveRoot(field *ast.Field) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverFunc(e.ctx, r)
		}
	}()

	switch field.Name {
	case "__schema":
		return introspectSchema(e.schema), nil
	case "__type":
		name, _ := field.ArgumentMap(e.vars)["name"].(string)
		def := e.schema.Types[name]
		if def == nil {
			return nil, nil
		}
		return introspectType(e.schema, def), nil
	}

	resolve, ok := e.resolvers[field.Name]
	if !ok {
		return nil, fmt.Errorf("no resolver for Query.%s", field.Name)
	}
	return resolve(e.ctx, field.ArgumentMap(e.vars))
}

func (e *execution) completeValue(field *ast.Field, typ *ast.Type, value any, path ast.Path) (any, error) {
	if l, ok := value.(lazy); ok {
		value = l()
	}

	if value == nil {
		if typ.NonNull {
			return e.fieldError(field, typ, path, gqlerror.Errorf("must not be null"))
		}
		return nil, nil
	}

	if typ.Elem != nil {
		items, ok := value.([]any)
		if !ok {
			return e.fieldError(field, typ, path, e.present(fmt.Errorf("%s: expected a list, got %T", path, value)))
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := e.completeValue(field, typ.Elem, item, appendPath(path, ast.PathIndex(i)))
			if err != nil {
				return nullify(typ)
			}
			out[i] = v
		}
		return out, nil
	}

	def := e.schema.Types[typ.NamedType]
	if def == nil || def.Kind != ast.Object {
		return value, nil
	}

	source, ok := value.(map[string]any)
	if !ok {
		return e.fieldError(field, typ, path, e.present(fmt.Errorf("%s: expected an object, got %T", path, value)))
	}
	obj, err := e.executeSelection(field.SelectionSet, def, source, path)
	if err != nil {
		return nullify(typ)
	}
	return obj, nil
}

// collectFields flattens fragments and merges fields sharing a response key
func (e *execution) collectFields(set ast.SelectionSet, def *ast.Definition) []collectedField {
	var fields []collectedField
	e.collect(set, def, &fields, map[string]int{}, map[string]bool{})
	return fields
}

func (e *execution) collect(set ast.SelectionSet, def *ast.Definition, fields *[]collectedField, index map[string]int, visited map[string]bool) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if !e.included(sel.Directives) {
				continue
			}
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			if i, ok := index[key]; ok {
				merged := *(*fields)[i].field
				merged.SelectionSet = append(append(ast.SelectionSet{}, merged.SelectionSet...), sel.SelectionSet...)
				(*fields)[i].field = &merged
				continue
			}
			index[key] = len(*fields)
			*fields = append(*fields, collectedField{key: key, field: sel})
		case *ast.InlineFragment:
			if !e.included(sel.Directives) || !appliesTo(sel.TypeCondition, def) {
				continue
			}
			e.collect(sel.SelectionSet, def, fields, index, visited)
		case *ast.FragmentSpread:
			if !e.included(sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			frag := sel.Definition
			if frag == nil {
				frag = e.doc.Fragments.ForName(sel.Name)
			}
			if frag == nil || !appliesTo(frag.TypeCondition, def) {
				continue
			}
			e.collect(frag.SelectionSet, def, fields, index, visited)
		}
	}
}

// included evaluates @skip and @include
func (e *execution) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(e.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(e.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

// fieldError records err at path and nulls the position
func (e *execution) fieldError(field *ast.Field, typ *ast.Type, path ast.Path, err *gqlerror.Error) (any, error) {
	err.Path = path
	if field.Position != nil {
		err.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	e.errs = append(e.errs, err)
	return nullify(typ)
}

func (e *execution) present(err error) *gqlerror.Error {
	return ErrorPresenter(e.ctx, err)
}

func nullify(typ *ast.Type) (any, error) {
	if typ.NonNull {
		return nil, errNull
	}
	return nil, nil
}

// appliesTo reports whether a fragment type condition matches an object type
func appliesTo(condition string, def *ast.Definition) bool {
	return condition == "" || condition == def.Name
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, 0, len(path)+1)
	out = append(out, path...)
	return append(out, elem)
}
