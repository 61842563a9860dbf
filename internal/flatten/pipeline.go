// Package flatten turns a nested identity-provider user record into a flat
// record: the attribute list becomes top-level keys, names are title-cased,
// "true"/"false" strings become booleans and a DisplayName is synthesized.
//
// The pipeline is pure and synchronous. A Pipeline holds only immutable
// options, so one value may serve concurrent callers.
package flatten

import (
	"errors"
	"fmt"
	"strings"

	"userflat/internal/userrecord/models"
)

// Output keys with fixed meaning.
const (
	KeyTags        = "Tags"
	KeyGivenName   = "GivenName"
	KeyFamilyName  = "FamilyName"
	KeyDisplayName = "DisplayName"

	// MissingDisplayName is stored when neither name part is present.
	MissingDisplayName = "GivenName and FamilyName MISSING"

	subjectKey = "Sub"
	tagsKey    = "Custom:tags"
	tagsSep    = ","
)

// ErrMissingField is matched by every MissingFieldError.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError names the required input field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// stage receives the input and the accumulating output and returns the output.
type stage func(in models.UserRecord, out *models.Record) (*models.Record, error)

// Pipeline runs the four flattening stages in order.
type Pipeline struct {
	opts   options
	stages []stage
}

// New builds a Pipeline. The zero configuration keeps the legacy title-case
// behaviour and tolerates a missing Username.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(&p.opts)
	}
	p.stages = []stage{
		p.seed,
		p.flattenAttributes,
		passthrough,
		displayName,
	}
	return p
}

// TitleCaseMode reports the configured mode.
func (p *Pipeline) TitleCaseMode() TitleCaseMode {
	return p.opts.titleCase
}

// Flatten runs the pipeline over one record. It either returns a complete
// record or an error; there is no partial result.
func (p *Pipeline) Flatten(in models.UserRecord) (*models.Record, error) {
	out := models.NewRecord()
	for _, run := range p.stages {
		next, err := run(in, out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// Flatten runs a default Pipeline.
func Flatten(in models.UserRecord) (*models.Record, error) {
	return New().Flatten(in)
}

// seed copies Username as given, whatever its JSON type. Only an absent field
// is treated as missing.
func (p *Pipeline) seed(in models.UserRecord, out *models.Record) (*models.Record, error) {
	if !in.HasUsername() {
		if p.opts.requireUsername {
			return nil, &MissingFieldError{Field: models.FieldUsername}
		}
		return out, nil
	}
	out.Set(models.FieldUsername, *in.Username)
	return out, nil
}

func (p *Pipeline) flattenAttributes(in models.UserRecord, out *models.Record) (*models.Record, error) {
	if !in.HasAttributes() {
		return nil, &MissingFieldError{Field: models.FieldUserAttributes}
	}
	for _, attr := range in.Attributes {
		name := TitleCase(attr.Name, p.opts.titleCase)
		switch name {
		case subjectKey:
			// duplicates Username
		case tagsKey:
			out.Set(KeyTags, models.List(strings.Split(attr.Value, tagsSep)))
		default:
			out.Set(name, CoerceString(attr.Value))
		}
	}
	return out, nil
}

func passthrough(in models.UserRecord, out *models.Record) (*models.Record, error) {
	for _, f := range in.Extra {
		if f.Key == "" || f.Key == models.FieldUsername || f.Key == models.FieldUserAttributes {
			continue
		}
		out.Set(f.Key, CoerceTruthy(f.Value))
	}
	return out, nil
}

func displayName(_ models.UserRecord, out *models.Record) (*models.Record, error) {
	given, hasGiven := out.Get(KeyGivenName)
	family, hasFamily := out.Get(KeyFamilyName)

	switch {
	case hasGiven && hasFamily:
		out.Set(KeyDisplayName, models.String(given.Text()+", "+family.Text()))
	case hasGiven:
		out.Set(KeyDisplayName, given)
	case hasFamily:
		out.Set(KeyDisplayName, family)
	default:
		out.Set(KeyDisplayName, models.String(MissingDisplayName))
	}
	return out, nil
}
