package openapi

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// The rules walk the spec document in authoring order: violation lists name
// the first offending paths, and Go's map type would shuffle them. The spec
// decodes into this ordered tree instead, from JSON or YAML alike.

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// value is one decoded document value. Object members keep authoring order.
type value struct {
	kind    valueKind
	boolean bool
	num     float64
	lit     string
	str     string
	items   []value
	members []member
}

// member is one object entry. strKey records whether the key was written as
// a string: YAML allows bare integer keys like a 202 status code, and those
// never satisfy a string lookup, only iteration.
type member struct {
	key    string
	strKey bool
	val    value
}

// get returns the member stored under a string key. Members with non-string
// keys are invisible here; iteration over members sees them by their
// rendered form.
func (v value) get(key string) (value, bool) {
	for _, m := range v.members {
		if m.strKey && m.key == key {
			return m.val, true
		}
	}
	return value{}, false
}

// has reports whether a string-keyed member exists.
func (v value) has(key string) bool {
	_, ok := v.get(key)
	return ok
}

// put inserts a member, replacing the value in place when the key repeats.
func (v *value) put(key string, strKey bool, child value) {
	for i, m := range v.members {
		if m.key == key && m.strKey == strKey {
			v.members[i].val = child
			return
		}
	}
	v.members = append(v.members, member{key: key, strKey: strKey, val: child})
}

// truthy reports the value's truthiness: null, false, zero, the empty
// string, and empty containers all read as false.
func (v value) truthy() bool {
	switch v.kind {
	case kindBool:
		return v.boolean
	case kindNumber:
		return v.num != 0
	case kindString:
		return v.str != ""
	case kindArray:
		return len(v.items) > 0
	case kindObject:
		return len(v.members) > 0
	}
	return false
}

// stringify renders the value for use inside a detail string.
func (v value) stringify() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindNumber:
		return v.lit
	case kindBool:
		if v.boolean {
			return "True"
		}
		return "False"
	}
	return ""
}

// parseSpec decodes an extracted candidate into the ordered tree, trying
// JSON first and YAML second. The extraction chain has already validated the
// content, so a decode failure collapses to an empty object and every rule
// reads the spec as empty.
func parseSpec(content string) value {
	if v, ok := decodeJSONObject(content); ok {
		return v
	}
	if v, ok := decodeYAMLObject(content); ok {
		return v
	}
	return value{kind: kindObject}
}

// decodeJSONObject decodes a candidate that must be a JSON object.
func decodeJSONObject(content string) (value, bool) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil || v.kind != kindObject {
		return value{}, false
	}
	// Trailing garbage after the object means this was not a JSON document.
	if _, err := dec.Token(); err == nil {
		return value{}, false
	}
	return v, true
}

func decodeJSONValue(dec *json.Decoder) (value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := value{kind: kindObject}
			for dec.More() {
				keyTok, keyErr := dec.Token()
				if keyErr != nil {
					return value{}, keyErr
				}
				key, _ := keyTok.(string)
				child, childErr := decodeJSONValue(dec)
				if childErr != nil {
					return value{}, childErr
				}
				obj.put(key, true, child)
			}
			_, err = dec.Token()
			return obj, err
		case '[':
			arr := value{kind: kindArray}
			for dec.More() {
				child, childErr := decodeJSONValue(dec)
				if childErr != nil {
					return value{}, childErr
				}
				arr.items = append(arr.items, child)
			}
			_, err = dec.Token()
			return arr, err
		}
	case string:
		return value{kind: kindString, str: t}, nil
	case json.Number:
		f, _ := t.Float64()
		return value{kind: kindNumber, num: f, lit: string(t)}, nil
	case bool:
		return value{kind: kindBool, boolean: t}, nil
	}
	return value{kind: kindNull}, nil
}

// decodeYAMLObject decodes a candidate that must be a YAML mapping.
func decodeYAMLObject(content string) (value, bool) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return value{}, false
	}
	v := yamlValue(&root)
	if v.kind != kindObject || len(v.members) == 0 {
		return value{}, false
	}
	return v, true
}

func yamlValue(n *yaml.Node) value {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return yamlValue(n.Content[0])
		}
		return value{kind: kindNull}
	case yaml.AliasNode:
		if n.Alias != nil {
			return yamlValue(n.Alias)
		}
		return value{kind: kindNull}
	case yaml.MappingNode:
		obj := value{kind: kindObject}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := yamlValue(n.Content[i])
			obj.put(key.stringifyKey(), key.kind == kindString, yamlValue(n.Content[i+1]))
		}
		return obj
	case yaml.SequenceNode:
		arr := value{kind: kindArray}
		for _, c := range n.Content {
			arr.items = append(arr.items, yamlValue(c))
		}
		return arr
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return value{kind: kindNull}
}

func yamlScalar(n *yaml.Node) value {
	switch n.ShortTag() {
	case "!!str":
		return value{kind: kindString, str: n.Value}
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return value{kind: kindString, str: n.Value}
		}
		return value{kind: kindNumber, num: f, lit: n.Value}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value{kind: kindString, str: n.Value}
		}
		return value{kind: kindBool, boolean: b}
	case "!!null":
		return value{kind: kindNull}
	}
	return value{kind: kindString, str: n.Value}
}

// stringifyKey renders a mapping key for member storage. Non-string keys
// keep their literal form so iteration sees a 202 status key as "202".
func (v value) stringifyKey() string {
	if v.kind == kindNull {
		return "None"
	}
	return v.stringify()
}
