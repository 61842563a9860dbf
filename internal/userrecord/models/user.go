// Package models holds the user-record shapes consumed and produced by the
// flattening pipeline.
package models

import "errors"

// Input field names of an identity-provider user lookup.
const (
	FieldUsername       = "Username"
	FieldUserAttributes = "UserAttributes"
)

var (
	ErrInvalidJSON        = errors.New("invalid json")
	ErrNotObject          = errors.New("user record must be a json object")
	ErrMalformedAttribute = errors.New("malformed attribute pair")
	ErrInvalidAttributes  = errors.New("UserAttributes must be an array")
)

// AttributePair is one {Name, Value} entry of UserAttributes.
type AttributePair struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Field is a top-level input field outside Username and UserAttributes.
type Field struct {
	Key   string
	Value Value
}

// UserRecord is the nested record returned by a user lookup.
//
// A nil Username means the field was absent; a present Username keeps its JSON
// type, so "" and null are distinct from absence. A nil Attributes slice means
// UserAttributes was absent; a present but empty list is a non-nil empty slice.
// Extra keeps document order and may hold repeated keys.
type UserRecord struct {
	Username   *Value
	Attributes []AttributePair
	Extra      []Field
}

// NewUsername returns a string Username for a UserRecord.
func NewUsername(s string) *Value {
	v := String(s)
	return &v
}

// HasUsername reports whether Username was supplied.
func (u UserRecord) HasUsername() bool {
	return u.Username != nil
}

// UsernameText renders Username for logs, or "" when absent.
func (u UserRecord) UsernameText() string {
	if u.Username == nil {
		return ""
	}
	return u.Username.Text()
}

// HasAttributes reports whether UserAttributes was supplied.
func (u UserRecord) HasAttributes() bool {
	return u.Attributes != nil
}
