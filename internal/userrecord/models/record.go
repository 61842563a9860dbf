package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// Record is the flattened user record. Keys keep insertion order, except that
// array-index keys ("0", "1", ...) come first in ascending numeric order, the
// same property order a JavaScript object reports. Overwriting an existing key
// replaces its value in place without moving it.
type Record struct {
	keys   []string
	values map[string]Value
}

func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set inserts or overwrites key.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.insertKey(key)
	}
	r.values[key] = v
}

// insertKey keeps index keys as a sorted prefix of r.keys.
func (r *Record) insertKey(key string) {
	idx, ok := arrayIndex(key)
	if !ok {
		r.keys = append(r.keys, key)
		return
	}
	pos := sort.Search(len(r.keys), func(i int) bool {
		n, isIndex := arrayIndex(r.keys[i])
		return !isIndex || n > idx
	})
	r.keys = slices.Insert(r.keys, pos, key)
}

// arrayIndex reports whether key is a canonical unsigned integer below 2^32-1.
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns keys in output order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	return len(r.keys)
}

// StringField returns the value under key when it is a string.
func (r *Record) StringField(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a record written by MarshalJSON, keeping document
// order. Arrays made only of strings decode as lists; other non-string,
// non-boolean values decode as raw JSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return ErrNotObject
	}
	*r = Record{values: make(map[string]Value)}
	root.ForEach(func(key, value gjson.Result) bool {
		r.Set(key.String(), valueFromResult(value))
		return true
	})
	return nil
}

func valueFromResult(res gjson.Result) Value {
	switch res.Type {
	case gjson.String:
		return String(res.String())
	case gjson.True, gjson.False:
		return Bool(res.Bool())
	}
	if res.IsArray() {
		items := res.Array()
		list := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				return Raw(json.RawMessage(res.Raw))
			}
			list = append(list, item.String())
		}
		return List(list)
	}
	return Raw(json.RawMessage(res.Raw))
}
