// Package policy decides whether a candidate passphrase is strong enough to
// become a vault passphrase.
package policy

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var ErrWeakPassphrase = errors.New("weak passphrase")

// Policy gates new passphrases before a rotation starts
type Policy interface {
	Valid(candidate string) bool
}

// Rules is the default rule-based policy
type Rules struct {
	MinLength     int  // Minimum length in runes
	RequireLetter bool // At least one letter
	RequireDigit  bool // At least one digit
}

// Default returns the rules passvault ships with
func Default() Rules {
	return Rules{
		MinLength:     8,
		RequireLetter: true,
		RequireDigit:  true,
	}
}

// Valid reports whether candidate satisfies the rules
func (r Rules) Valid(candidate string) bool {
	return r.Check(candidate) == nil
}

// Check explains why candidate is rejected, wrapping ErrWeakPassphrase
func (r Rules) Check(candidate string) error {
	if !utf8.ValidString(candidate) {
		return fmt.Errorf("%w: not valid UTF-8", ErrWeakPassphrase)
	}
	if n := utf8.RuneCountInString(candidate); n < r.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassphrase, r.MinLength)
	}

	var hasLetter, hasDigit bool
	distinct := make(map[rune]struct{})
	for _, c := range candidate {
		distinct[c] = struct{}{}
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}

	if r.RequireLetter && !hasLetter {
		return fmt.Errorf("%w: must contain a letter", ErrWeakPassphrase)
	}
	if r.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassphrase)
	}
	if len(distinct) < 2 && candidate != "" {
		return fmt.Errorf("%w: must not repeat a single character", ErrWeakPassphrase)
	}
	return nil
}

// Check applies p, using the detailed reason when p provides one
func Check(p Policy, candidate string) error {
	if c, ok := p.(interface{ Check(string) error }); ok {
		return c.Check(candidate)
	}
	if !p.Valid(candidate) {
		return ErrWeakPassphrase
	}
	return nil
}

// Func adapts a function to Policy
type Func func(candidate string) bool

func (f Func) Valid(candidate string) bool {
	return f(candidate)
}
