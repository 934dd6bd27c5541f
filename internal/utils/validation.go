package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"golang.org/x/text/unicode/norm"
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		IsValid: true,
		Errors:  []ValidationError{},
	}
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.IsValid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// ByField returns one message per field, the first one recorded
func (vr *ValidationResult) ByField() map[string]string {
	out := make(map[string]string, len(vr.Errors))
	for _, e := range vr.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

var (
	lettersRegex   = regexp.MustCompile(`^(?:\p{L}\p{M}*)+(?: (?:\p{L}\p{M}*)+)*$`)
	birthRegex     = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	cpfFormatRegex = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)
)

// Messages shown next to each field. "required" applies to the required tag,
// "format" to every other tag on the field.
var fieldMessages = map[string]struct{ required, format string }{
	models.FieldName:    {"Nome obrigatório", "Nome deve conter apenas letras"},
	models.FieldBirth:   {"Data de nascimento obrigatório", "Data de nascimento deve estar no formato DD/MM/AAAA"},
	models.FieldCPF:     {"CPF obrigatório", "CPF deve estar no formato 000.000.000-00"},
	models.FieldPhone:   {"Celular obrigatório", "Celular inválido"},
	models.FieldEmail:   {"E-mail obrigatório", "Digite um e-mail válido"},
	models.FieldAddress: {"Endereço obrigatório", "Endereço inválido"},
	models.FieldObs:     {"", "Observações devem ter no máximo 300 caracteres"},
}

// CPFChecksumMessage is attached to the cpf field when the check digits fail
const CPFChecksumMessage = "CPF inválido"

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "letters", lettersRegex)
	mustRegister(v, "birthdate", birthRegex)
	mustRegister(v, "cpfpattern", cpfFormatRegex)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// ValidateRecord runs the registration schema over a candidate record. Every
// field is checked; each field reports at most one error, the first rule it
// fails. The input is expected to be sanitized already.
func ValidateRecord(input models.RecordInput) *ValidationResult {
	result := NewValidationResult()

	err := recordValidator.Struct(input)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable on programmer error (non-struct input)
		result.AddError("", err.Error())
		return result
	}

	byField := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		byField[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	// Report in form order, not validator order
	for _, field := range models.FieldNames {
		if msg, ok := byField[field]; ok {
			result.AddError(field, msg)
		}
	}
	return result
}

// FormatMessage is the message shown when field has the wrong shape
func FormatMessage(field string) string {
	return messageFor(field, "format")
}

func messageFor(field, tag string) string {
	msgs, ok := fieldMessages[field]
	if !ok {
		return "Campo inválido"
	}
	if tag == "required" {
		return msgs.required
	}
	return msgs.format
}

// SanitizeString removes leading/trailing whitespace and normalizes string
func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}

// SanitizeRecordInput trims every field, composes text to NFC, collapses runs
// of spaces in the name and lowercases the email
func SanitizeRecordInput(input models.RecordInput) models.RecordInput {
	return models.RecordInput{
		Name:    strings.Join(strings.Fields(norm.NFC.String(input.Name)), " "),
		Birth:   SanitizeString(input.Birth),
		CPF:     SanitizeString(input.CPF),
		Phone:   SanitizeString(input.Phone),
		Email:   strings.ToLower(SanitizeString(input.Email)),
		Address: SanitizeString(norm.NFC.String(input.Address)),
		Obs:     SanitizeString(norm.NFC.String(input.Obs)),
	}
}
