// Package template renders contract and email bodies written with {{var}} placeholders,
// {% if %} blocks and {% for %} loops, then converts the markdown result to HTML.
package template

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

type nodeKind int

const (
	textNode nodeKind = iota
	varNode
	ifNode
	forNode
)

type node struct {
	kind     nodeKind
	text     string // literal text, variable path, if condition or loop list path
	item     string // loop variable
	children []node
	elseBody []node
}

var tagPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}|\{%\s*(.+?)\s*%\}`)

type token struct {
	kind string // "text", "var", "tag"
	val  string
}

func tokenize(tpl string) []token {
	var out []token
	last := 0
	for _, m := range tagPattern.FindAllStringSubmatchIndex(tpl, -1) {
		if m[0] > last {
			out = append(out, token{"text", tpl[last:m[0]]})
		}
		if m[2] >= 0 {
			out = append(out, token{"var", tpl[m[2]:m[3]]})
		} else {
			out = append(out, token{"tag", tpl[m[4]:m[5]]})
		}
		last = m[1]
	}
	if last < len(tpl) {
		out = append(out, token{"text", tpl[last:]})
	}
	return out
}

type parser struct {
	tokens []token
	pos    int
}

// parse reads nodes until one of the stop tags (endif, else, endfor) and returns the tag that stopped it.
func (p *parser) parse(stops ...string) ([]node, string, error) {
	var nodes []node
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		p.pos++
		switch t.kind {
		case "text":
			nodes = append(nodes, node{kind: textNode, text: t.val})
		case "var":
			nodes = append(nodes, node{kind: varNode, text: t.val})
		case "tag":
			fields := strings.Fields(t.val)
			if len(fields) == 0 {
				return nil, "", fmt.Errorf("empty tag")
			}
			keyword := fields[0]
			for _, stop := range stops {
				if keyword == stop {
					return nodes, keyword, nil
				}
			}
			switch keyword {
			case "if":
				if len(fields) < 2 {
					return nil, "", fmt.Errorf("if without condition")
				}
				n := node{kind: ifNode, text: strings.Join(fields[1:], " ")}
				body, stop, err := p.parse("else", "endif")
				if err != nil {
					return nil, "", err
				}
				n.children = body
				if stop == "else" {
					n.elseBody, stop, err = p.parse("endif")
					if err != nil {
						return nil, "", err
					}
				}
				if stop != "endif" {
					return nil, "", fmt.Errorf("unclosed if %q", n.text)
				}
				nodes = append(nodes, n)
			case "for":
				if len(fields) != 4 || fields[2] != "in" {
					return nil, "", fmt.Errorf("malformed for tag %q", t.val)
				}
				n := node{kind: forNode, item: fields[1], text: fields[3]}
				body, stop, err := p.parse("endfor")
				if err != nil {
					return nil, "", err
				}
				if stop != "endfor" {
					return nil, "", fmt.Errorf("unclosed for %q", t.val)
				}
				n.children = body
				nodes = append(nodes, n)
			default:
				return nil, "", fmt.Errorf("unexpected tag %q", t.val)
			}
		}
	}
	return nodes, "", nil
}

// Render substitutes vars into tpl. Unknown placeholders render as empty strings.
func Render(tpl string, vars map[string]any) (string, error) {
	p := &parser{tokens: tokenize(tpl)}
	nodes, stop, err := p.parse()
	if err != nil {
		return "", err
	}
	if stop != "" {
		return "", fmt.Errorf("unexpected %s", stop)
	}
	var b strings.Builder
	render(&b, nodes, []map[string]any{vars})
	return b.String(), nil
}

func render(b *strings.Builder, nodes []node, scopes []map[string]any) {
	for _, n := range nodes {
		switch n.kind {
		case textNode:
			b.WriteString(n.text)
		case varNode:
			if v, ok := lookup(scopes, n.text); ok && v != nil {
				fmt.Fprint(b, v)
			}
		case ifNode:
			if evalCondition(n.text, scopes) {
				render(b, n.children, scopes)
			} else {
				render(b, n.elseBody, scopes)
			}
		case forNode:
			list, _ := lookup(scopes, n.text)
			rv := reflect.ValueOf(list)
			if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
				continue
			}
			for i := 0; i < rv.Len(); i++ {
				scope := map[string]any{n.item: rv.Index(i).Interface(), "loop_index": i + 1}
				render(b, n.children, append([]map[string]any{scope}, scopes...))
			}
		}
	}
}

// evalCondition supports a bare path, "not path", and "a == b" / "a != b" against quoted literals.
func evalCondition(cond string, scopes []map[string]any) bool {
	cond = strings.TrimSpace(cond)
	if strings.HasPrefix(cond, "not ") {
		return !evalCondition(strings.TrimPrefix(cond, "not "), scopes)
	}
	for _, op := range []string{"==", "!="} {
		if left, right, ok := strings.Cut(cond, op); ok {
			l := operand(strings.TrimSpace(left), scopes)
			r := operand(strings.TrimSpace(right), scopes)
			equal := fmt.Sprint(l) == fmt.Sprint(r)
			if op == "==" {
				return equal
			}
			return !equal
		}
	}
	v, _ := lookup(scopes, cond)
	return truthy(v)
}

func operand(s string, scopes []map[string]any) any {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	v, _ := lookup(scopes, s)
	return v
}

func lookup(scopes []map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for _, scope := range scopes {
		v, ok := scope[parts[0]]
		if !ok {
			continue
		}
		for _, key := range parts[1:] {
			v, ok = field(v, key)
			if !ok {
				return nil, false
			}
		}
		return v, true
	}
	return nil, false
}

func field(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out, ok := m[key]
		return out, ok
	case map[string]string:
		out, ok := m[key]
		return out, ok
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByName(key)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
