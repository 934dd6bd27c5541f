package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/observability"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"go.uber.org/zap"
)

// FormState is the lifecycle state of the registration form
type FormState string

const (
	StateIdle       FormState = "idle"
	StateValidating FormState = "validating"
	StateError      FormState = "error"
	StateSubmitted  FormState = "submitted"
)

// SubmitResult is the outcome of one submission: Record on success, a
// non-empty Errors on validation failure, Err on storage failure.
type SubmitResult struct {
	// Record is the stored record on success
	Record *models.Record
	// Errors holds one message per invalid field
	Errors map[string]string
	// Err is a storage failure; the form keeps its values
	Err error
	// Values are the form values after the submission (empty on success)
	Values map[string]string
	// State is the state the submission ended in
	State FormState
}

// OK reports whether the record was stored
func (r SubmitResult) OK() bool {
	return r.Record != nil && r.Err == nil && len(r.Errors) == 0
}

// FormController drives the registration form: it owns the registered
// fields, validates submissions, persists accepted records and mirrors the
// store in memory for the table view. All methods are safe for concurrent use.
type FormController struct {
	mu      sync.Mutex
	store   RecordStore
	logger  *logging.SafeLogger
	order   []string
	fields  map[string]Field
	errors  map[string]string
	state   FormState
	records []models.Record

	newID func() string
	now   func() time.Time
}

// NewFormController creates a controller with no fields registered
func NewFormController(store RecordStore, logger *logging.SafeLogger) *FormController {
	return &FormController{
		store:   store,
		logger:  logger,
		fields:  make(map[string]Field),
		errors:  map[string]string{},
		state:   StateIdle,
		records: []models.Record{},
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// NewRegistrationForm creates a controller with the seven registration
// fields; birth, cpf and phone are masked.
func NewRegistrationForm(store RecordStore, logger *logging.SafeLogger) *FormController {
	fc := NewFormController(store, logger)
	fc.RegisterField(models.FieldName, &TextField{})
	fc.RegisterField(models.FieldBirth, NewMaskedField(utils.BirthMask))
	fc.RegisterField(models.FieldCPF, NewMaskedField(utils.CPFMask))
	fc.RegisterField(models.FieldPhone, NewMaskedField(utils.PhoneMask))
	fc.RegisterField(models.FieldEmail, &TextField{})
	fc.RegisterField(models.FieldAddress, &TextField{})
	fc.RegisterField(models.FieldObs, &TextField{})
	return fc
}

// RegisterField associates name with a field. Registering a name again
// replaces the field but keeps its position.
func (fc *FormController) RegisterField(name string, field Field) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if _, exists := fc.fields[name]; !exists {
		fc.order = append(fc.order, name)
	}
	fc.fields[name] = field
}

// Mount loads the stored records into memory
func (fc *FormController) Mount(ctx context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	ctx, span := utils.TraceBusinessLogic(ctx, "form_mount")
	defer span.End()

	records, err := fc.store.Load(ctx)
	if err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("load records: %w", err)
	}
	fc.records = records
	observability.RecordsStored.Set(float64(len(records)))

	fc.logger.Info("records loaded", zap.Int("count", len(records)))
	return nil
}

// Submit runs one submission of the form with the given values. Missing keys
// count as empty fields. Validation failures are reported in the result and
// never touch the store. The form keeps the values and errors of a rejected
// submission and is cleared after an accepted one.
func (fc *FormController) Submit(ctx context.Context, data map[string]string) SubmitResult {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.errors = map[string]string{}
	fc.state = StateValidating

	result := fc.run(ctx, "form.submit", fc.fields, data)
	switch {
	case result.OK():
		fc.state = StateSubmitted
		fc.clearFields()
		result.Values = fc.values()
		fc.state = StateIdle
	default:
		fc.errors = copyMap(result.Errors)
		fc.state = StateError
	}
	return result
}

// Create validates and stores one record like Submit but on scratch fields,
// leaving the form's values, errors and state untouched
func (fc *FormController) Create(ctx context.Context, data map[string]string) SubmitResult {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	return fc.run(ctx, "form.create", fc.scratchFields(), data)
}

// run writes data into fields, validates, and appends the record on success.
// It only changes the in-memory record list.
func (fc *FormController) run(ctx context.Context, operation string, fields map[string]Field, data map[string]string) SubmitResult {
	ctx, span, done := utils.TraceOperation(ctx, operation, map[string]interface{}{
		"form.fields": len(fc.order),
	})
	defer done()

	for _, name := range fc.order {
		fields[name].Write(data[name])
	}
	values := readFields(fc.order, fields)
	input := utils.SanitizeRecordInput(models.RecordInputFromMap(values))

	_, validationSpan := utils.TraceInputValidation(ctx, "record_schema", "all")
	fieldErrors := utils.ValidateRecord(input).ByField()
	for _, name := range fc.order {
		if c, ok := fields[name].(Constrained); ok && !c.Valid() {
			if _, exists := fieldErrors[name]; !exists {
				fieldErrors[name] = utils.FormatMessage(name)
			}
		}
	}
	validationSpan.End()
	if len(fieldErrors) > 0 {
		return rejected(fieldErrors, values, "invalid")
	}

	_, cpfSpan := utils.TraceInputValidation(ctx, "cpf_checksum", models.FieldCPF)
	cpfOK := utils.ValidateCPF(input.CPF)
	cpfSpan.End()
	if !cpfOK {
		fc.logger.Debug("cpf checksum failed", zap.String("cpf", observability.MaskCPF(input.CPF)))
		return rejected(map[string]string{models.FieldCPF: utils.CPFChecksumMessage}, values, "checksum_failed")
	}

	record := models.NewRecord(fc.newID(), input, fc.now())
	if err := fc.store.Append(ctx, record); err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"record_id": record.ID})
		observability.Submissions.WithLabelValues("store_error").Inc()
		fc.logger.Error("failed to store record", zap.String("record_id", record.ID), zap.Error(err))
		return SubmitResult{
			Err:    fmt.Errorf("store record: %w", err),
			Errors: map[string]string{},
			Values: values,
			State:  StateError,
		}
	}

	fc.records = append(fc.records, record)
	observability.RecordsStored.Set(float64(len(fc.records)))
	observability.Submissions.WithLabelValues("stored").Inc()
	fc.logger.Info("record stored",
		zap.String("record_id", record.ID),
		zap.String("cpf", observability.MaskCPF(record.CPF)),
	)

	return SubmitResult{
		Record: &record,
		Errors: map[string]string{},
		Values: values,
		State:  StateSubmitted,
	}
}

func rejected(fieldErrors, values map[string]string, outcome string) SubmitResult {
	observability.Submissions.WithLabelValues(outcome).Inc()
	return SubmitResult{
		Errors: fieldErrors,
		Values: values,
		State:  StateError,
	}
}

// scratchFields returns empty fields of the same kinds as the registered ones
func (fc *FormController) scratchFields() map[string]Field {
	out := make(map[string]Field, len(fc.order))
	for _, name := range fc.order {
		switch f := fc.fields[name].(type) {
		case *MaskedField:
			out[name] = NewMaskedField(f.mask)
		default:
			out[name] = &TextField{}
		}
	}
	return out
}

// Remove deletes a record by ID from the store and the in-memory list
func (fc *FormController) Remove(ctx context.Context, id string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	err := fc.store.Remove(ctx, id)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		fc.logger.Error("failed to remove record", zap.String("record_id", id), zap.Error(err))
		return err
	}

	// A record already gone from the store is dropped from memory too
	for i := range fc.records {
		if fc.records[i].ID == id {
			fc.records = append(fc.records[:i:i], fc.records[i+1:]...)
			break
		}
	}
	observability.RecordsStored.Set(float64(len(fc.records)))

	if err != nil {
		return err
	}
	fc.logger.Info("record removed", zap.String("record_id", id))
	return nil
}

// Reset clears every field and error and returns to idle
func (fc *FormController) Reset() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.clearFields()
	fc.errors = map[string]string{}
	fc.state = StateIdle
}

// Records returns a copy of the in-memory record list in insertion order
func (fc *FormController) Records() []models.Record {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]models.Record, len(fc.records))
	copy(out, fc.records)
	return out
}

// Errors returns the field errors of the last submission
func (fc *FormController) Errors() map[string]string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return copyMap(fc.errors)
}

// Values returns the current field values keyed by field name
func (fc *FormController) Values() map[string]string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.values()
}

// State returns the current form state
func (fc *FormController) State() FormState {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.state
}

// FieldNames returns the registered field names in registration order
func (fc *FormController) FieldNames() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.order...)
}

func (fc *FormController) values() map[string]string {
	return readFields(fc.order, fc.fields)
}

func readFields(order []string, fields map[string]Field) map[string]string {
	out := make(map[string]string, len(order))
	for _, name := range order {
		out[name] = fields[name].Read()
	}
	return out
}

func (fc *FormController) clearFields() {
	for _, name := range fc.order {
		fc.fields[name].Clear()
	}
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
