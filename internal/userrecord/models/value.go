package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind tags which member of the Value union is populated.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindList
	// KindRaw holds a passthrough field whose JSON type is not a string
	// (number, null, object, array). It is re-emitted verbatim.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is one entry of a flattened record.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []string
	raw  json.RawMessage
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List copies items so later mutation of the caller's slice does not leak in.
func List(items []string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Raw wraps already-encoded JSON. The bytes are compacted and copied.
func Raw(msg json.RawMessage) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, msg); err != nil {
		return Value{kind: KindRaw, raw: append(json.RawMessage(nil), msg...)}
	}
	return Value{kind: KindRaw, raw: buf.Bytes()}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

func (v Value) AsRaw() (json.RawMessage, bool) {
	if v.kind != KindRaw {
		return nil, false
	}
	return append(json.RawMessage(nil), v.raw...), true
}

// Text renders the value the way it reads when concatenated into a string in
// JavaScript: booleans as true/false, arrays joined with commas, objects as
// "[object Object]" and numbers in their shortest form.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindList:
		return strings.Join(v.list, ",")
	case KindRaw:
		return rawText(gjson.ParseBytes(v.raw), false)
	default:
		return v.str
	}
}

// rawText stringifies a JSON value. Inside an array null renders empty.
func rawText(res gjson.Result, nested bool) string {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Number:
		return numberText(res.Num)
	case gjson.Null:
		if nested {
			return ""
		}
		return "null"
	}
	if !res.IsArray() {
		return "[object Object]"
	}
	items := res.Array()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = rawText(item, true)
	}
	return strings.Join(parts, ",")
}

// numberText formats f like Number.prototype.toString.
func numberText(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindRaw:
		return bytes.Equal(v.raw, o.raw)
	default:
		return v.str == o.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalString(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindRaw:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	default:
		return marshalString(v.str)
	}
}

// marshalString encodes s without HTML escaping, so "<" and "&" stay literal.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
