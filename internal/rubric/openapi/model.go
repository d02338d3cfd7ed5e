package openapi

import "strings"

// Document accessors shared by the rule checks. All iteration is in
// authoring order so violation details name the first offenders the way the
// historical ledgers did.

// httpMethods is the operation key set, in the order operations are listed.
var httpMethods = []string{"get", "post", "put", "patch", "delete", "options", "head", "trace"}

// mutatingMethods is the subset the response-shape rules inspect.
var mutatingMethods = []string{"get", "post", "put", "patch", "delete"}

// operation is one method+path operation of the spec.
type operation struct {
	method      string
	path        string
	id          value
	hasID       bool
	summary     value
	description value
	security    value
	hasSecurity bool
}

// label returns the operation's identity for a detail string: its
// operationId when set, otherwise "METHOD /path".
func (o operation) label() string {
	if o.hasID && o.id.truthy() {
		return o.id.stringify()
	}
	return strings.ToUpper(o.method) + " " + o.path
}

// allPaths returns the spec's path strings in authoring order.
func allPaths(spec value) []string {
	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return nil
	}
	out := make([]string, 0, len(paths.members))
	for _, m := range paths.members {
		out = append(out, m.key)
	}
	return out
}

// pathSegments splits a path into its literal segments, dropping parameter
// placeholders and empty segments.
func pathSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s == "" || strings.HasPrefix(s, "{") {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// versionSegment matches version prefixes like v1 or v2, which every path
// rule skips.
func versionSegment(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for i := 1; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// allOperations lists every operation of the spec, path order outermost and
// the fixed method order within a path item.
func allOperations(spec value) []operation {
	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return nil
	}

	var ops []operation
	for _, pm := range paths.members {
		item := pm.val
		if item.kind != kindObject {
			continue
		}
		for _, method := range httpMethods {
			opVal, found := item.get(method)
			if !found || opVal.kind != kindObject {
				continue
			}
			op := operation{method: method, path: pm.key}
			op.id, op.hasID = opVal.get("operationId")
			op.summary, _ = opVal.get("summary")
			op.description, _ = opVal.get("description")
			if sec, secOK := opVal.get("security"); secOK && sec.kind != kindNull {
				op.security = sec
				op.hasSecurity = true
			}
			ops = append(ops, op)
		}
	}
	return ops
}

// allSchemas returns components.schemas when it is an object.
func allSchemas(spec value) value {
	components, ok := spec.get("components")
	if !ok || components.kind != kindObject {
		return value{kind: kindObject}
	}
	schemas, ok := components.get("schemas")
	if !ok || schemas.kind != kindObject {
		return value{kind: kindObject}
	}
	return schemas
}

// allPropertyNames collects every property name across every schema,
// following allOf/oneOf/anyOf composition with local $ref resolution.
func allPropertyNames(spec value) []string {
	var names []string
	var collect func(schema value)
	collect = func(schema value) {
		if schema.kind != kindObject {
			return
		}
		if props, ok := schema.get("properties"); ok && props.kind == kindObject {
			for _, m := range props.members {
				names = append(names, m.key)
			}
		}
		walkCompositions(spec, schema, collect)
	}
	for _, m := range allSchemas(spec).members {
		collect(m.val)
	}
	return names
}

// walkCompositions visits each allOf/oneOf/anyOf item, resolving component
// $refs first. An item whose $ref resolves to a different non-empty schema
// is visited through the resolution; everything else is visited as written.
func walkCompositions(spec, schema value, visit func(value)) {
	for _, comboKey := range []string{"allOf", "oneOf", "anyOf"} {
		combo, ok := schema.get(comboKey)
		if !ok || combo.kind != kindArray {
			continue
		}
		for _, item := range combo.items {
			if item.kind != kindObject {
				continue
			}
			resolved, resOK, changed := resolveSchemaRef(spec, item)
			if resOK && changed && resolved.truthy() {
				visit(resolved)
				continue
			}
			visit(item)
		}
	}
}

// resolveSchemaRef resolves a schema's local $ref. It returns the schema
// unchanged when it carries no ref, the target with changed=true when the
// ref points into components.schemas, and ok=false when the ref is external
// or dangling.
func resolveSchemaRef(spec, schema value) (resolved value, ok, changed bool) {
	if schema.kind != kindObject {
		return schema, true, false
	}
	ref, found := schema.get("$ref")
	if !found || ref.kind != kindString {
		return schema, true, false
	}
	const prefix = "#/components/schemas/"
	name, isLocal := strings.CutPrefix(ref.str, prefix)
	if !isLocal {
		return value{}, false, false
	}
	target, exists := allSchemas(spec).get(name)
	if !exists {
		return value{}, false, false
	}
	return target, true, true
}

// resolveParamRef resolves a parameter's local $ref into
// components.parameters, returning the parameter unchanged when it cannot.
func resolveParamRef(spec, param value) value {
	if param.kind != kindObject {
		return param
	}
	ref, found := param.get("$ref")
	if !found || ref.kind != kindString {
		return param
	}
	const prefix = "#/components/parameters/"
	name, isLocal := strings.CutPrefix(ref.str, prefix)
	if !isLocal {
		return param
	}
	components, ok := spec.get("components")
	if !ok || components.kind != kindObject {
		return param
	}
	params, ok := components.get("parameters")
	if !ok || params.kind != kindObject {
		return param
	}
	target, exists := params.get(name)
	if !exists || target.kind != kindObject {
		return param
	}
	return target
}

// validateStructure checks the document-level OpenAPI shape: a version
// field, an info object, and a paths object.
func validateStructure(spec value) (bool, []string) {
	var errs []string

	if !spec.has("openapi") {
		if spec.has("swagger") {
			errs = append(errs, "uses Swagger 2.0 instead of OpenAPI 3.0")
		} else {
			errs = append(errs, "missing 'openapi' version field")
		}
	}

	if info, ok := spec.get("info"); !ok {
		errs = append(errs, "missing 'info' block")
	} else if info.kind != kindObject {
		errs = append(errs, "'info' is not an object")
	}

	if paths, ok := spec.get("paths"); !ok {
		errs = append(errs, "missing 'paths' block")
	} else if paths.kind != kindObject {
		errs = append(errs, "'paths' is not an object")
	}

	return len(errs) == 0, errs
}
