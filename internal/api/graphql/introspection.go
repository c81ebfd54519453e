package graphql

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// introspectSchema renders the __Schema of s. Nested types are lazy so a query only
// builds the part of the type graph it selects.
func introspectSchema(s *ast.Schema) map[string]any {
	return map[string]any{
		"description": optional(s.Description),
		"types": lazy(func() any {
			names := make([]string, 0, len(s.Types))
			for name := range s.Types {
				names = append(names, name)
			}
			sort.Strings(names)

			types := make([]any, 0, len(names))
			for _, name := range names {
				types = append(types, introspectType(s, s.Types[name]))
			}
			return types
		}),
		"queryType":        lazy(func() any { return introspectType(s, s.Query) }),
		"mutationType":     lazy(func() any { return introspectType(s, s.Mutation) }),
		"subscriptionType": lazy(func() any { return introspectType(s, s.Subscription) }),
		"directives": lazy(func() any {
			names := make([]string, 0, len(s.Directives))
			for name := range s.Directives {
				names = append(names, name)
			}
			sort.Strings(names)

			directives := make([]any, 0, len(names))
			for _, name := range names {
				directives = append(directives, introspectDirective(s, s.Directives[name]))
			}
			return directives
		}),
	}
}

// introspectType renders the __Type of a named definition, nil for a nil definition
func introspectType(s *ast.Schema, def *ast.Definition) any {
	if def == nil {
		return nil
	}

	t := map[string]any{
		"kind":        string(def.Kind),
		"name":        def.Name,
		"description": optional(def.Description),
	}

	switch def.Kind {
	case ast.Object, ast.Interface:
		t["fields"] = lazy(func() any {
			fields := make([]any, 0, len(def.Fields))
			for _, f := range def.Fields {
				if strings.HasPrefix(f.Name, "__") {
					continue
				}
				fields = append(fields, introspectField(s, f))
			}
			return fields
		})
		t["interfaces"] = lazy(func() any {
			interfaces := make([]any, 0, len(def.Interfaces))
			for _, name := range def.Interfaces {
				interfaces = append(interfaces, introspectType(s, s.Types[name]))
			}
			return interfaces
		})
	case ast.Enum:
		t["enumValues"] = lazy(func() any {
			values := make([]any, 0, len(def.EnumValues))
			for _, v := range def.EnumValues {
				deprecated, reason := deprecation(v.Directives)
				values = append(values, map[string]any{
					"name":              v.Name,
					"description":       optional(v.Description),
					"isDeprecated":      deprecated,
					"deprecationReason": reason,
				})
			}
			return values
		})
	case ast.InputObject:
		t["isOneOf"] = def.Directives.ForName("oneOf") != nil
		t["inputFields"] = lazy(func() any {
			fields := make([]any, 0, len(def.Fields))
			for _, f := range def.Fields {
				fields = append(fields, introspectInputValue(s, f.Name, f.Description, f.Type, f.DefaultValue, f.Directives))
			}
			return fields
		})
	}

	if def.Kind == ast.Interface || def.Kind == ast.Union {
		t["possibleTypes"] = lazy(func() any {
			possible := s.GetPossibleTypes(def)
			types := make([]any, 0, len(possible))
			for _, p := range possible {
				types = append(types, introspectType(s, p))
			}
			return types
		})
	}

	return t
}

func introspectField(s *ast.Schema, f *ast.FieldDefinition) map[string]any {
	deprecated, reason := deprecation(f.Directives)
	return map[string]any{
		"name":              f.Name,
		"description":       optional(f.Description),
		"args":              introspectArgs(s, f.Arguments),
		"type":              lazy(func() any { return introspectTypeRef(s, f.Type) }),
		"isDeprecated":      deprecated,
		"deprecationReason": reason,
	}
}

func introspectArgs(s *ast.Schema, args ast.ArgumentDefinitionList) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		out = append(out, introspectInputValue(s, a.Name, a.Description, a.Type, a.DefaultValue, a.Directives))
	}
	return out
}

func introspectInputValue(s *ast.Schema, name, description string, typ *ast.Type, defaultValue *ast.Value, directives ast.DirectiveList) map[string]any {
	var def any
	if defaultValue != nil {
		def = defaultValue.String()
	}
	deprecated, reason := deprecation(directives)
	return map[string]any{
		"name":              name,
		"description":       optional(description),
		"type":              lazy(func() any { return introspectTypeRef(s, typ) }),
		"defaultValue":      def,
		"isDeprecated":      deprecated,
		"deprecationReason": reason,
	}
}

// introspectTypeRef renders a field or argument type with its NON_NULL and LIST wrappers
func introspectTypeRef(s *ast.Schema, typ *ast.Type) any {
	if typ.NonNull {
		inner := *typ
		inner.NonNull = false
		return map[string]any{
			"kind":   "NON_NULL",
			"ofType": lazy(func() any { return introspectTypeRef(s, &inner) }),
		}
	}
	if typ.Elem != nil {
		return map[string]any{
			"kind":   "LIST",
			"ofType": lazy(func() any { return introspectTypeRef(s, typ.Elem) }),
		}
	}
	return introspectType(s, s.Types[typ.NamedType])
}

func introspectDirective(s *ast.Schema, d *ast.DirectiveDefinition) map[string]any {
	locations := make([]any, len(d.Locations))
	for i, l := range d.Locations {
		locations[i] = string(l)
	}
	return map[string]any{
		"name":         d.Name,
		"description":  optional(d.Description),
		"locations":    locations,
		"args":         introspectArgs(s, d.Arguments),
		"isRepeatable": d.IsRepeatable,
	}
}

// deprecation reads the @deprecated directive
func deprecation(directives ast.DirectiveList) (bool, any) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, "No longer supported"
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
