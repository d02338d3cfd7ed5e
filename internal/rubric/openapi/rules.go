package openapi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mrz1836/verdict/internal/taskdata"
)

// checkFunc evaluates one rule against the parsed spec document.
type checkFunc func(spec value, task taskdata.Task) (bool, string)

// ruleTable lists the rules in ledger column order. Numbering is append-only
// because historical ledger columns derive from the IDs. All fourteen rules
// are automatable; the openapi rubric has no manual exclusions.
//
//nolint:gochecknoglobals // Read-only rule registry
var ruleTable = []struct {
	id    string
	title string
	check checkFunc
}{
	{id: "rule_1_plural_nouns", title: "Collection path segments use plural nouns", check: checkPluralNouns},
	{id: "rule_2_kebab_case", title: "Path segments are kebab-case", check: checkKebabCase},
	{id: "rule_3_no_verbs", title: "No verbs in path segments", check: checkNoVerbs},
	{id: "rule_4_operation_id", title: "operationId on every operation", check: checkOperationID},
	{id: "rule_5_description", title: "Description or summary on every operation", check: checkDescription},
	{id: "rule_6_camel_case", title: "Schema property names are camelCase", check: checkCamelCase},
	{id: "rule_7_contact", title: "info.contact carries an email or url", check: checkContact},
	{id: "rule_8_rfc7807", title: "Error responses use an RFC 7807 problem schema", check: checkRFC7807},
	{id: "rule_9_cursor_pagination", title: "List endpoints use cursor pagination when required", check: checkCursorPagination},
	{id: "rule_10_rate_limit_headers", title: "Rate-limit headers documented on 2xx responses", check: checkRateLimitHeaders},
	{id: "rule_11_idempotency_key", title: "POST and PUT accept an Idempotency-Key header", check: checkIdempotencyKey},
	{id: "rule_12_examples", title: "At least 80% of schema properties carry examples", check: checkExamples},
	{id: "rule_13_security_scheme", title: "Security scheme defined when auth is required", check: checkSecurityScheme},
	{id: "rule_14_security_applied", title: "Security applied globally or per operation", check: checkSecurityApplied},
}

// singularSegments lists the bare singular API nouns the plural rule flags.
// The list is fixed; nouns outside it are never flagged, which is a known
// false-negative profile of the rubric.
//
//nolint:gochecknoglobals // Read-only lookup table
var singularSegments = map[string]bool{
	"user": true, "product": true, "order": true, "merchant": true, "payment": true,
	"refund": true, "webhook": true, "item": true, "category": true, "customer": true,
	"account": true, "transaction": true, "invoice": true, "event": true,
	"report": true, "log": true, "message": true, "comment": true, "tag": true,
	"role": true, "permission": true, "booking": true, "subscription": true,
	"review": true, "file": true, "session": true, "notification": true,
	"setting": true, "address": true, "delivery": true,
}

// verbBlacklist lists the path verbs the no-verbs rule flags, both as whole
// segments and as camelCase prefixes.
//
//nolint:gochecknoglobals // Read-only lookup table
var verbBlacklist = []string{
	"get", "create", "delete", "update", "fetch", "remove",
	"add", "list", "search", "find", "retrieve", "modify",
	"put", "post", "patch",
}

var camelCaseRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

func checkPluralNouns(spec value, _ taskdata.Task) (bool, string) {
	paths := allPaths(spec)
	if len(paths) == 0 {
		return false, "no paths defined"
	}

	var flags []string
	for _, path := range paths {
		for _, seg := range pathSegments(path) {
			if versionSegment(seg) {
				continue
			}
			if singularSegments[strings.ToLower(seg)] {
				flags = append(flags, fmt.Sprintf("'%s' in %s should be plural", seg, path))
			}
		}
	}

	if len(flags) > 0 {
		return false, joinFirst(flags, 3)
	}
	return true, "ok"
}

func checkKebabCase(spec value, _ taskdata.Task) (bool, string) {
	paths := allPaths(spec)
	if len(paths) == 0 {
		return false, "no paths defined"
	}

	var violations []string
	for _, path := range paths {
		for _, seg := range pathSegments(path) {
			if versionSegment(seg) {
				continue
			}
			if seg != strings.ToLower(seg) {
				violations = append(violations, fmt.Sprintf("'%s' has uppercase in %s", seg, path))
			}
			if strings.Contains(seg, "_") {
				violations = append(violations, fmt.Sprintf("'%s' has underscore in %s", seg, path))
			}
		}
	}

	if len(violations) > 0 {
		return false, joinFirst(violations, 3)
	}
	return true, "ok"
}

func checkNoVerbs(spec value, _ taskdata.Task) (bool, string) {
	paths := allPaths(spec)
	if len(paths) == 0 {
		return false, "no paths defined"
	}

	var violations []string
	for _, path := range paths {
		for _, seg := range pathSegments(path) {
			lower := strings.ToLower(seg)
			if isBlacklistedVerb(lower) {
				violations = append(violations, fmt.Sprintf("verb '%s' in %s", seg, path))
				continue
			}
			// camelCase verb prefix: getUsers, createOrder.
			for _, verb := range verbBlacklist {
				if strings.HasPrefix(lower, verb) && len(seg) > len(verb) && isUpperByte(seg[len(verb)]) {
					violations = append(violations, fmt.Sprintf("verb prefix '%s' in '%s' in %s", verb, seg, path))
					break
				}
			}
		}
	}

	if len(violations) > 0 {
		return false, joinFirst(violations, 3)
	}
	return true, "ok"
}

func checkOperationID(spec value, _ taskdata.Task) (bool, string) {
	ops := allOperations(spec)
	if len(ops) == 0 {
		return false, "no operations found"
	}

	var missing []string
	for _, o := range ops {
		if !o.hasID || !o.id.truthy() {
			missing = append(missing, strings.ToUpper(o.method)+" "+o.path)
		}
	}
	if len(missing) > 0 {
		return false, "missing operationId on: " + joinFirstComma(missing, 3)
	}
	return true, fmt.Sprintf("ok (%d operations)", len(ops))
}

func checkDescription(spec value, _ taskdata.Task) (bool, string) {
	ops := allOperations(spec)
	if len(ops) == 0 {
		return false, "no operations found"
	}

	var missing []string
	for _, o := range ops {
		if nonBlankText(o.description) || nonBlankText(o.summary) {
			continue
		}
		missing = append(missing, o.label())
	}
	if len(missing) > 0 {
		return false, "missing description/summary on: " + joinFirstComma(missing, 3)
	}
	return true, fmt.Sprintf("ok (%d operations)", len(ops))
}

func checkCamelCase(spec value, _ taskdata.Task) (bool, string) {
	names := allPropertyNames(spec)
	if len(names) == 0 {
		return true, "needs_review (no schemas with properties)"
	}

	seen := make(map[string]bool)
	var violations []string
	for _, name := range names {
		if camelCaseRe.MatchString(name) || seen[name] {
			continue
		}
		seen[name] = true
		violations = append(violations, name)
	}
	sort.Strings(violations)

	if len(violations) > 0 {
		return false, "non-camelCase: " + joinFirstComma(violations, 5)
	}
	return true, fmt.Sprintf("ok (%d properties checked)", len(names))
}

func checkContact(spec value, _ taskdata.Task) (bool, string) {
	info, ok := spec.get("info")
	if ok && info.kind != kindObject {
		return false, "info is not an object"
	}

	contact, ok := info.get("contact")
	if !ok || contact.kind != kindObject {
		return false, "info.contact missing"
	}
	email, _ := contact.get("email")
	url, _ := contact.get("url")
	if !email.truthy() && !url.truthy() {
		return false, "info.contact has no email or url"
	}
	return true, "ok"
}

func checkRFC7807(spec value, _ taskdata.Task) (bool, string) {
	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return false, "no paths"
	}

	found, compliant := 0, 0
	for _, pm := range paths.members {
		item := pm.val
		if item.kind != kindObject {
			continue
		}
		for _, method := range mutatingMethods {
			op, opOK := item.get(method)
			if !opOK || op.kind != kindObject {
				continue
			}
			responses, respOK := op.get("responses")
			if !respOK || responses.kind != kindObject {
				continue
			}
			for _, rm := range responses.members {
				if !errorStatus(rm.key) {
					continue
				}
				response := rm.val
				if response.kind != kindObject {
					continue
				}
				f, c := countProblemSchemas(spec, response)
				found += f
				compliant += c
			}
		}
	}

	if found == 0 {
		return false, "no error response schemas found"
	}
	if compliant == 0 {
		return false, fmt.Sprintf("0/%d error schemas have type+title+status+detail", found)
	}
	return true, fmt.Sprintf("%d/%d error schemas are RFC 7807 compliant", compliant, found)
}

// errorStatus reports whether a response key names an error response: the
// default catch-all or a 4xx/5xx code.
func errorStatus(code string) bool {
	if code == "default" {
		return true
	}
	return len(code) == 3 && (code[0] == '4' || code[0] == '5')
}

// countProblemSchemas counts one error response's content schemas and how
// many of them carry the four RFC 7807 fields. A response-level $ref into
// components.responses is followed; any other response-level $ref counts as
// one unresolved schema.
func countProblemSchemas(spec, response value) (found, compliant int) {
	if ref, ok := response.get("$ref"); ok {
		const prefix = "#/components/responses/"
		name := ""
		if ref.kind == kindString {
			name, _ = strings.CutPrefix(ref.str, prefix)
		}
		resolved, resolvedOK := value{}, false
		if name != "" && name != ref.str {
			if components, cOK := spec.get("components"); cOK && components.kind == kindObject {
				if compResponses, rOK := components.get("responses"); rOK && compResponses.kind == kindObject {
					resolved, resolvedOK = compResponses.get(name)
				}
			}
		}
		if !resolvedOK {
			return 1, 0
		}
		response = resolved
	}

	content, ok := response.get("content")
	if !ok || content.kind != kindObject {
		return 0, 0
	}
	for _, mm := range content.members {
		media := mm.val
		if media.kind != kindObject {
			continue
		}
		schema, schemaOK := media.get("schema")
		if !schemaOK || schema.kind == kindNull {
			continue
		}
		found++
		resolved, resOK, _ := resolveSchemaRef(spec, schema)
		if !resOK {
			continue
		}
		if props, pOK := resolved.get("properties"); pOK && props.kind == kindObject {
			if props.has("type") && props.has("title") && props.has("status") && props.has("detail") {
				compliant++
			}
		}
	}
	return found, compliant
}

func checkCursorPagination(spec value, task taskdata.Task) (bool, string) {
	if !task.RequiresPagination {
		return true, "n/a (pagination not required)"
	}

	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return false, "no paths"
	}

	found, compliant := 0, 0
	for _, pm := range paths.members {
		item := pm.val
		if item.kind != kindObject {
			continue
		}
		op, opOK := item.get("get")
		if !opOK || op.kind != kindObject {
			continue
		}
		// Single-resource paths end with a path parameter; only collection
		// GETs are list endpoints.
		segs := strings.Split(strings.TrimRight(pm.key, "/"), "/")
		last := ""
		for i := len(segs) - 1; i >= 0; i-- {
			if segs[i] != "" {
				last = segs[i]
				break
			}
		}
		if strings.HasPrefix(last, "{") {
			continue
		}

		responses, respOK := op.get("responses")
		if !respOK || responses.kind != kindObject {
			continue
		}
		success, successOK := responses.get("200")
		if !successOK || !success.truthy() {
			success, successOK = responses.get("201")
		}
		if !successOK || success.kind != kindObject {
			continue
		}

		content, contentOK := success.get("content")
		if !contentOK || content.kind != kindObject {
			continue
		}
		for _, mm := range content.members {
			media := mm.val
			if media.kind != kindObject {
				continue
			}
			schema, schemaOK := media.get("schema")
			if !schemaOK || schema.kind == kindNull {
				continue
			}
			resolved, resOK, _ := resolveSchemaRef(spec, schema)
			if !resOK {
				continue
			}
			props, propsOK := resolved.get("properties")
			if resolved.kind == kindObject && propsOK && props.kind != kindObject {
				if t, tOK := resolved.get("type"); tOK && t.kind == kindString && t.str == "array" {
					found++
				}
				continue
			}

			found++
			if hasCursorEnvelope(props) {
				compliant++
			}
		}
	}

	if found == 0 {
		return true, "no list endpoints found"
	}
	if compliant == 0 {
		return false, fmt.Sprintf("0/%d list endpoints have cursor pagination (data+nextCursor+hasMore)", found)
	}
	return true, fmt.Sprintf("%d/%d list endpoints have cursor pagination", compliant, found)
}

// hasCursorEnvelope checks a schema's properties for the data array, cursor
// string, and has-more boolean of the pagination envelope. Untyped cursor
// and has-more properties are accepted.
func hasCursorEnvelope(props value) bool {
	hasData, hasCursor, hasMore := false, false, false
	for _, m := range props.members {
		prop := m.val
		if prop.kind != kindObject {
			continue
		}
		nameLower := strings.ToLower(m.key)
		t, typed := prop.get("type")
		switch nameLower {
		case "data":
			if typed && t.kind == kindString && t.str == "array" {
				hasData = true
			}
		case "nextcursor", "next_cursor", "cursor":
			if !typed || (t.kind == kindString && t.str == "string") {
				hasCursor = true
			}
		case "hasmore", "has_more":
			if !typed || (t.kind == kindString && t.str == "boolean") {
				hasMore = true
			}
		}
	}
	return hasData && hasCursor && hasMore
}

func checkRateLimitHeaders(spec value, _ taskdata.Task) (bool, string) {
	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return false, "no paths"
	}

	found, compliant := 0, 0
	for _, pm := range paths.members {
		item := pm.val
		if item.kind != kindObject {
			continue
		}
		for _, method := range mutatingMethods {
			op, opOK := item.get(method)
			if !opOK || op.kind != kindObject {
				continue
			}
			responses, respOK := op.get("responses")
			if !respOK || responses.kind != kindObject {
				continue
			}
			for _, rm := range responses.members {
				if len(rm.key) != 3 || rm.key[0] != '2' {
					continue
				}
				response := rm.val
				if response.kind != kindObject {
					continue
				}
				found++
				headers, headersOK := response.get("headers")
				if !headersOK || headers.kind != kindObject {
					continue
				}
				if hasRateLimitHeaders(headers) {
					compliant++
				}
			}
		}
	}

	if found == 0 {
		return false, "no success (2xx) responses found"
	}
	detail := fmt.Sprintf("%d/%d success responses have rate-limit headers", compliant, found)
	return compliant == found, detail
}

// hasRateLimitHeaders matches the three X-RateLimit header names
// case-insensitively.
func hasRateLimitHeaders(headers value) bool {
	names := make(map[string]bool, len(headers.members))
	for _, m := range headers.members {
		names[strings.ToLower(m.key)] = true
	}
	return names["x-ratelimit-limit"] && names["x-ratelimit-remaining"] && names["x-ratelimit-reset"]
}

func checkIdempotencyKey(spec value, _ taskdata.Task) (bool, string) {
	paths, ok := spec.get("paths")
	if !ok || paths.kind != kindObject {
		return false, "no paths"
	}

	total, compliant := 0, 0
	for _, pm := range paths.members {
		item := pm.val
		if item.kind != kindObject {
			continue
		}
		var pathParams []value
		if params, paramsOK := item.get("parameters"); paramsOK && params.kind == kindArray {
			pathParams = params.items
		}

		for _, method := range []string{"post", "put"} {
			op, opOK := item.get(method)
			if !opOK || op.kind != kindObject {
				continue
			}
			total++

			all := append([]value{}, pathParams...)
			if params, paramsOK := op.get("parameters"); paramsOK && params.kind == kindArray {
				all = append(all, params.items...)
			}

			for _, param := range all {
				if param.kind != kindObject {
					continue
				}
				resolved := resolveParamRef(spec, param)
				in, _ := resolved.get("in")
				name, _ := resolved.get("name")
				if in.kind == kindString && in.str == "header" &&
					name.kind == kindString && strings.EqualFold(name.str, "idempotency-key") {
					compliant++
					break
				}
			}
		}
	}

	if total == 0 {
		return true, "n/a (no POST/PUT operations)"
	}
	if compliant == 0 {
		return false, fmt.Sprintf("0/%d POST/PUT operations have Idempotency-Key header", total)
	}
	return true, fmt.Sprintf("%d/%d POST/PUT operations have Idempotency-Key header", compliant, total)
}

func checkExamples(spec value, _ taskdata.Task) (bool, string) {
	total, withExample := 0, 0
	var count func(schema value)
	count = func(schema value) {
		if schema.kind != kindObject {
			return
		}
		if props, ok := schema.get("properties"); ok && props.kind == kindObject {
			for _, m := range props.members {
				total++
				if m.val.kind == kindObject && m.val.has("example") {
					withExample++
				}
			}
		}
		walkCompositions(spec, schema, count)
	}
	for _, m := range allSchemas(spec).members {
		count(m.val)
	}

	if total == 0 {
		return true, "no properties found"
	}
	ratio := float64(withExample) / float64(total)
	detail := fmt.Sprintf("%d/%d (%.0f%%) have examples", withExample, total, ratio*100)
	if ratio < 0.80 {
		return false, detail + " (need >= 80%)"
	}
	return true, detail
}

func checkSecurityScheme(spec value, task taskdata.Task) (bool, string) {
	if !task.AuthRequired() {
		return true, "n/a (auth not required)"
	}

	components, ok := spec.get("components")
	if !ok || components.kind != kindObject {
		return false, "no components block (auth required)"
	}
	schemes, ok := components.get("securitySchemes")
	if !ok || schemes.kind != kindObject || len(schemes.members) == 0 {
		return false, "no securitySchemes defined (auth required)"
	}

	names := make([]string, 0, len(schemes.members))
	for _, m := range schemes.members {
		names = append(names, m.key)
	}
	return true, "ok (" + strings.Join(names, ", ") + ")"
}

func checkSecurityApplied(spec value, task taskdata.Task) (bool, string) {
	if !task.AuthRequired() {
		return true, "n/a (auth not required)"
	}

	// security: [] means "no auth required", so only a non-empty requirement
	// object counts.
	if global, ok := spec.get("security"); ok && global.kind == kindArray && len(global.items) > 0 {
		for _, req := range global.items {
			if req.kind == kindObject && len(req.members) > 0 {
				return true, "ok (global security)"
			}
		}
	}

	ops := allOperations(spec)
	withSecurity := 0
	for _, o := range ops {
		if o.hasSecurity {
			withSecurity++
		}
	}
	if withSecurity > 0 {
		return true, fmt.Sprintf("ok (%d/%d ops have security)", withSecurity, len(ops))
	}
	return false, "security not applied globally or per-operation"
}

// isBlacklistedVerb reports whether a lower-cased segment is exactly a
// blacklisted verb.
func isBlacklistedVerb(lower string) bool {
	for _, verb := range verbBlacklist {
		if lower == verb {
			return true
		}
	}
	return false
}

func isUpperByte(b byte) bool { return b >= 'A' && b <= 'Z' }

// nonBlankText reports whether an operation text field carries visible
// content.
func nonBlankText(v value) bool {
	if v.kind == kindString {
		return strings.TrimSpace(v.str) != ""
	}
	return v.truthy()
}

// joinFirst joins at most n detail fragments with the semicolon separator.
func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, "; ")
}

// joinFirstComma joins at most n fragments with the comma separator.
func joinFirstComma(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
