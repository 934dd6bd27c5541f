package services

import (
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
)

// Field is a form input the controller can read, force and clear
type Field interface {
	Read() string
	Write(value string)
	Clear()
}

// TextField is a plain text input
type TextField struct {
	value string
}

func (f *TextField) Read() string       { return f.value }
func (f *TextField) Write(value string) { f.value = value }
func (f *TextField) Clear()             { f.value = "" }

// Constrained is implemented by fields that can hold a value their input
// constraint would not have let through
type Constrained interface {
	Valid() bool
}

// MaskedField is a text input constrained to a mask. It keeps the raw digits
// and reads back the masked display value. A value that does not fit the mask
// is kept verbatim and reported through Valid.
type MaskedField struct {
	mask     utils.Mask
	raw      string
	rejected string
	invalid  bool
}

// NewMaskedField creates an empty input for mask
func NewMaskedField(mask utils.Mask) *MaskedField {
	return &MaskedField{mask: mask}
}

func (f *MaskedField) Read() string {
	if f.invalid {
		return f.rejected
	}
	return f.mask.Apply(f.raw)
}

// Write accepts either raw digits or an already masked value
func (f *MaskedField) Write(value string) {
	if !f.mask.Fits(value) {
		f.raw, f.rejected, f.invalid = "", value, true
		return
	}
	f.raw, f.rejected, f.invalid = f.mask.Raw(value), "", false
}

func (f *MaskedField) Clear() { f.raw, f.rejected, f.invalid = "", "", false }

// Valid reports whether the last written value fit the mask
func (f *MaskedField) Valid() bool { return !f.invalid }

// Raw returns the unmasked digits
func (f *MaskedField) Raw() string { return f.raw }
