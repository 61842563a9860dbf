package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseUserRecord decodes one user record, keeping the document order of the
// top-level fields so passthrough overwrites happen in the order they were
// written. gjson is used instead of encoding/json because a Go map loses that
// order.
//
// A missing UserAttributes key leaves Attributes nil; the pipeline decides
// whether that is fatal. Non-string attribute values are taken by their JSON
// text, so a literal true still coerces to a boolean.
func ParseUserRecord(data []byte) (UserRecord, error) {
	if !gjson.ValidBytes(data) {
		return UserRecord{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return UserRecord{}, ErrNotObject
	}

	var (
		user     UserRecord
		parseErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		switch name := key.String(); name {
		case FieldUsername:
			username := fieldValue(value)
			user.Username = &username
		case FieldUserAttributes:
			attrs, err := parseAttributes(value)
			if err != nil {
				parseErr = err
				return false
			}
			user.Attributes = attrs
		default:
			user.Extra = append(user.Extra, Field{Key: name, Value: fieldValue(value)})
		}
		return true
	})
	if parseErr != nil {
		return UserRecord{}, parseErr
	}
	return user, nil
}

func parseAttributes(value gjson.Result) ([]AttributePair, error) {
	if value.Type == gjson.Null {
		return nil, nil
	}
	if !value.IsArray() {
		return nil, ErrInvalidAttributes
	}
	items := value.Array()
	attrs := make([]AttributePair, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrMalformedAttribute, i)
		}
		name := item.Get("Name")
		if name.Type != gjson.String {
			return nil, fmt.Errorf("%w: entry %d has no string Name", ErrMalformedAttribute, i)
		}
		attrs = append(attrs, AttributePair{
			Name:  name.String(),
			Value: item.Get("Value").String(),
		})
	}
	return attrs, nil
}

func fieldValue(value gjson.Result) Value {
	if value.Type == gjson.String {
		return String(value.String())
	}
	return Raw(json.RawMessage(value.Raw))
}
