package flatten

import (
	"fmt"
	"strings"
)

// TitleCaseMode selects how segments after the second are joined.
type TitleCaseMode int

const (
	// TitleCaseLegacy drops j leading characters from the segment at index j,
	// matching records already produced by earlier releases. phone_number_verified
	// becomes PhoneNumberVrified.
	TitleCaseLegacy TitleCaseMode = iota
	// TitleCaseStrict drops exactly the first character of every segment.
	TitleCaseStrict
)

func (m TitleCaseMode) String() string {
	if m == TitleCaseStrict {
		return "strict"
	}
	return "legacy"
}

// ParseTitleCaseMode accepts "legacy" or "strict" (case-insensitive).
func ParseTitleCaseMode(s string) (TitleCaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return TitleCaseLegacy, nil
	case "strict":
		return TitleCaseStrict, nil
	default:
		return TitleCaseLegacy, fmt.Errorf("unknown title-case mode %q", s)
	}
}

type options struct {
	titleCase       TitleCaseMode
	requireUsername bool
}

// Option configures a Pipeline.
type Option func(*options)

func WithTitleCaseMode(mode TitleCaseMode) Option {
	return func(o *options) {
		o.titleCase = mode
	}
}

// WithRequireUsername makes a missing Username fail the call instead of
// leaving the key out of the output.
func WithRequireUsername(require bool) Option {
	return func(o *options) {
		o.requireUsername = require
	}
}
