package chartdeep

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The deep rubric searches the chart object structure-agnostically: a rule
// looks for evidence at any depth under any accepted key spelling, and the
// first match in document order wins. Go's map type forgets member order,
// so the chart decodes into this ordered tree instead.

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// value is one decoded JSON value. Object members keep document order.
// isInt records whether a number literal carried no fraction or exponent;
// the highlight-count check accepts whole-number counts only.
type value struct {
	kind    valueKind
	boolean bool
	num     float64
	isInt   bool
	str     string
	items   []value
	members []member
}

type member struct {
	key string
	val value
}

// get returns the named object member.
func (v value) get(key string) (value, bool) {
	for _, m := range v.members {
		if m.key == key {
			return m.val, true
		}
	}
	return value{}, false
}

// put inserts a member, replacing the value in place when the key repeats,
// which is what a decoder's map does with duplicate keys.
func (v *value) put(key string, child value) {
	for i, m := range v.members {
		if m.key == key {
			v.members[i].val = child
			return
		}
	}
	v.members = append(v.members, member{key: key, val: child})
}

// truthy follows the flag semantics of the spine and legend checks: null,
// false, zero, the empty string, and empty containers all read as off.
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

// parseChart decodes a JSON object into the ordered tree. The extraction
// chain has already validated the content, so a decode failure collapses to
// an empty object and every rule reads the aspect as unspecified.
func parseChart(content string) value {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil || v.kind != kindObject {
		return value{kind: kindObject}
	}
	return v
}

func decodeValue(dec *json.Decoder) (value, error) {
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
				child, childErr := decodeValue(dec)
				if childErr != nil {
					return value{}, childErr
				}
				obj.put(key, child)
			}
			_, err = dec.Token()
			return obj, err
		case '[':
			arr := value{kind: kindArray}
			for dec.More() {
				child, childErr := decodeValue(dec)
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
		return value{kind: kindNumber, num: f, isInt: !strings.ContainsAny(string(t), ".eE")}, nil
	case bool:
		return value{kind: kindBool, boolean: t}, nil
	}
	return value{kind: kindNull}, nil
}

// match is one deepFind hit: the dotted path to the value and the value.
type match struct {
	path string
	val  value
}

// deepFind collects every value stored under any of the given key names,
// case-insensitively, at any depth, in document order. A matching member is
// reported before the matches inside its own subtree.
func deepFind(root value, keys ...string) []match {
	lower := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		lower[strings.ToLower(k)] = struct{}{}
	}

	var out []match
	var walk func(v value, path string)
	walk = func(v value, path string) {
		switch v.kind {
		case kindObject:
			for _, m := range v.members {
				childPath := m.key
				if path != "" {
					childPath = path + "." + m.key
				}
				if _, ok := lower[strings.ToLower(m.key)]; ok {
					out = append(out, match{path: childPath, val: m.val})
				}
				walk(m.val, childPath)
			}
		case kindArray:
			for i, item := range v.items {
				walk(item, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	}
	walk(root, "")
	return out
}
