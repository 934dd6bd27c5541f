package utils

import (
	"strings"
)

// Mask is an input pattern where '9' stands for one digit and every other
// character is a literal inserted into the display value.
type Mask string

// Masks used by the registration form
const (
	BirthMask Mask = "99/99/9999"
	CPFMask   Mask = "999.999.999-99"
	PhoneMask Mask = "(99) 99999-9999"
)

const maskDigit = '9'

// Slots returns how many digits the mask accepts
func (m Mask) Slots() int {
	return strings.Count(string(m), string(maskDigit))
}

// Apply renders value through the mask. Non-digits in value are dropped,
// digits beyond the mask's capacity are truncated and literals are emitted
// only while digits remain, so a partial entry never ends in a literal.
func (m Mask) Apply(value string) string {
	digits := CPFDigits(value)
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(m))
	next := 0
	for _, c := range string(m) {
		if next >= len(digits) {
			break
		}
		if c == maskDigit {
			b.WriteByte(digits[next])
			next++
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Raw returns the unmasked digits of value, truncated to the mask's capacity
func (m Mask) Raw(value string) string {
	digits := CPFDigits(value)
	if slots := m.Slots(); len(digits) > slots {
		digits = digits[:slots]
	}
	return digits
}

// Fits reports whether value could have been typed into the mask: only
// digits and the mask's own literals, and no more digits than slots.
// Surrounding whitespace is ignored.
func (m Mask) Fits(value string) bool {
	digits := 0
	for _, c := range strings.TrimSpace(value) {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case !strings.ContainsRune(string(m), c):
			return false
		}
	}
	return digits <= m.Slots()
}

// Complete reports whether value fills every digit slot
func (m Mask) Complete(value string) bool {
	return len(m.Raw(value)) == m.Slots()
}
