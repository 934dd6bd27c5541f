package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStore wraps a memory-backed store and counts mutations
type spyStore struct {
	RecordStore
	mu        sync.Mutex
	appends   int
	removes   int
	appendErr error
}

func newSpyStore() *spyStore {
	return &spyStore{RecordStore: NewBlobRecordStore(NewMemoryKeyValue(), testKey, logging.Logger)}
}

func (s *spyStore) Append(ctx context.Context, record models.Record) error {
	s.mu.Lock()
	s.appends++
	err := s.appendErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.RecordStore.Append(ctx, record)
}

func (s *spyStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	s.removes++
	s.mu.Unlock()
	return s.RecordStore.Remove(ctx, id)
}

func validSubmission() map[string]string {
	return map[string]string{
		models.FieldName:    "João Silva",
		models.FieldBirth:   "01/01/1990",
		models.FieldCPF:     "529.982.247-25",
		models.FieldPhone:   "(11) 91234-5678",
		models.FieldEmail:   "joao@example.com",
		models.FieldAddress: "Rua A, 1",
		models.FieldObs:     "",
	}
}

func setupFormController(t *testing.T) (*FormController, *spyStore) {
	t.Helper()
	store := newSpyStore()
	fc := NewRegistrationForm(store, logging.Logger)
	fc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	require.NoError(t, fc.Mount(context.Background()))
	return fc, store
}

func TestFormController_SubmitValid(t *testing.T) {
	fc, store := setupFormController(t)
	ctx := context.Background()

	result := fc.Submit(ctx, validSubmission())

	require.True(t, result.OK())
	assert.Empty(t, result.Errors)
	assert.Equal(t, StateSubmitted, result.State)
	assert.Equal(t, StateIdle, fc.State())

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	last := stored[len(stored)-1]
	assert.Equal(t, "João Silva", last.Name)
	assert.Equal(t, "529.982.247-25", last.CPF)
	assert.Equal(t, "joao@example.com", last.Email)
	assert.Equal(t, *result.Record, last)
	assert.NotEmpty(t, last.ID)

	// Fields are reset after a successful submission
	for name, value := range fc.Values() {
		assert.Empty(t, value, name)
	}
	assert.Equal(t, stored, fc.Records())
}

func TestFormController_SubmitAcceptsRawMaskedDigits(t *testing.T) {
	fc, _ := setupFormController(t)
	data := validSubmission()
	data[models.FieldBirth] = "01011990"
	data[models.FieldCPF] = "52998224725"
	data[models.FieldPhone] = "11912345678"

	result := fc.Submit(context.Background(), data)

	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Equal(t, "01/01/1990", result.Record.Birth)
	assert.Equal(t, "529.982.247-25", result.Record.CPF)
	assert.Equal(t, "(11) 91234-5678", result.Record.Phone)
}

func TestFormController_SubmitChecksumFailure(t *testing.T) {
	fc, store := setupFormController(t)
	data := validSubmission()
	data[models.FieldCPF] = "111.111.111-11"

	result := fc.Submit(context.Background(), data)

	assert.False(t, result.OK())
	assert.Equal(t, map[string]string{models.FieldCPF: utils.CPFChecksumMessage}, result.Errors)
	assert.Equal(t, StateError, fc.State())
	assert.Equal(t, 0, store.appends)
	assert.Empty(t, fc.Records())

	// The user's input is kept for correction
	assert.Equal(t, "111.111.111-11", fc.Values()[models.FieldCPF])
	assert.Equal(t, "João Silva", fc.Values()[models.FieldName])
}

func TestFormController_SubmitInvalid(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(map[string]string)
		expected map[string]string
	}{
		{
			name:     "empty form",
			modify:   func(d map[string]string) { for k := range d { d[k] = "" } },
			expected: map[string]string{
				models.FieldName:    "Nome obrigatório",
				models.FieldBirth:   "Data de nascimento obrigatório",
				models.FieldCPF:     "CPF obrigatório",
				models.FieldPhone:   "Celular obrigatório",
				models.FieldEmail:   "E-mail obrigatório",
				models.FieldAddress: "Endereço obrigatório",
			},
		},
		{
			name:     "digits in name",
			modify:   func(d map[string]string) { d[models.FieldName] = "João 2" },
			expected: map[string]string{models.FieldName: "Nome deve conter apenas letras"},
		},
		{
			name:     "incomplete birth",
			modify:   func(d map[string]string) { d[models.FieldBirth] = "01/01" },
			expected: map[string]string{models.FieldBirth: "Data de nascimento deve estar no formato DD/MM/AAAA"},
		},
		{
			name:     "incomplete cpf",
			modify:   func(d map[string]string) { d[models.FieldCPF] = "529.982" },
			expected: map[string]string{models.FieldCPF: "CPF deve estar no formato 000.000.000-00"},
		},
		{
			name:     "bad email",
			modify:   func(d map[string]string) { d[models.FieldEmail] = "joao@" },
			expected: map[string]string{models.FieldEmail: "Digite um e-mail válido"},
		},
		{
			name:     "obs too long",
			modify:   func(d map[string]string) { d[models.FieldObs] = strings.Repeat("a", 301) },
			expected: map[string]string{models.FieldObs: "Observações devem ter no máximo 300 caracteres"},
		},
		{
			name:     "letters in cpf",
			modify:   func(d map[string]string) { d[models.FieldCPF] = "5x2y9z98224725" },
			expected: map[string]string{models.FieldCPF: "CPF deve estar no formato 000.000.000-00"},
		},
		{
			name:     "extra cpf digits",
			modify:   func(d map[string]string) { d[models.FieldCPF] = "529.982.247-25999" },
			expected: map[string]string{models.FieldCPF: "CPF deve estar no formato 000.000.000-00"},
		},
		{
			name:     "extra birth digits",
			modify:   func(d map[string]string) { d[models.FieldBirth] = "01/01/19901234" },
			expected: map[string]string{models.FieldBirth: "Data de nascimento deve estar no formato DD/MM/AAAA"},
		},
		{
			name:     "extra phone digits",
			modify:   func(d map[string]string) { d[models.FieldPhone] = "(11) 91234-56789999" },
			expected: map[string]string{models.FieldPhone: "Celular inválido"},
		},
		{
			name:     "missing keys count as empty",
			modify:   func(d map[string]string) { delete(d, models.FieldAddress) },
			expected: map[string]string{models.FieldAddress: "Endereço obrigatório"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, store := setupFormController(t)
			data := validSubmission()
			tt.modify(data)

			result := fc.Submit(context.Background(), data)

			assert.False(t, result.OK())
			assert.Equal(t, tt.expected, result.Errors)
			assert.Equal(t, tt.expected, fc.Errors())
			assert.Equal(t, StateError, result.State)
			assert.Equal(t, 0, store.appends, "invalid submissions must not reach the store")
		})
	}
}

func TestFormController_ObsAtLimitIsAccepted(t *testing.T) {
	fc, _ := setupFormController(t)
	data := validSubmission()
	data[models.FieldObs] = strings.Repeat("é", models.ObsMaxLength)

	result := fc.Submit(context.Background(), data)
	assert.True(t, result.OK(), "errors: %v", result.Errors)
}

func TestFormController_ErrorsClearedOnNextSubmit(t *testing.T) {
	fc, _ := setupFormController(t)
	data := validSubmission()
	data[models.FieldEmail] = "nope"
	require.False(t, fc.Submit(context.Background(), data).OK())
	require.NotEmpty(t, fc.Errors())

	result := fc.Submit(context.Background(), validSubmission())
	assert.True(t, result.OK())
	assert.Empty(t, fc.Errors())
}

func TestFormController_StoreFailureKeepsValues(t *testing.T) {
	fc, store := setupFormController(t)
	store.appendErr = errors.New("quota exceeded")

	result := fc.Submit(context.Background(), validSubmission())

	assert.False(t, result.OK())
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, store.appendErr)
	assert.Nil(t, result.Record)
	assert.Equal(t, StateError, fc.State())
	assert.Empty(t, fc.Records())
	assert.Equal(t, "João Silva", fc.Values()[models.FieldName])
}

func TestFormController_RemoveOnlyRecord(t *testing.T) {
	fc, store := setupFormController(t)
	ctx := context.Background()
	result := fc.Submit(ctx, validSubmission())
	require.True(t, result.OK())

	require.NoError(t, fc.Remove(ctx, result.Record.ID))

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, fc.Records())
}

func TestFormController_RemoveDuplicatesByID(t *testing.T) {
	fc, _ := setupFormController(t)
	ctx := context.Background()
	first := fc.Submit(ctx, validSubmission())
	second := fc.Submit(ctx, validSubmission())
	require.True(t, first.OK())
	require.True(t, second.OK())
	require.NotEqual(t, first.Record.ID, second.Record.ID)

	require.NoError(t, fc.Remove(ctx, first.Record.ID))

	records := fc.Records()
	require.Len(t, records, 1)
	assert.Equal(t, second.Record.ID, records[0].ID)
}

func TestFormController_RemoveUnknown(t *testing.T) {
	fc, store := setupFormController(t)

	err := fc.Remove(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	assert.Equal(t, 1, store.removes)
}

func TestFormController_MountLoadsExisting(t *testing.T) {
	store := newSpyStore()
	ctx := context.Background()
	require.NoError(t, store.RecordStore.Append(ctx, testRecord("id-1", "Ana")))
	require.NoError(t, store.RecordStore.Append(ctx, testRecord("id-2", "Bia")))

	fc := NewRegistrationForm(store, logging.Logger)
	require.NoError(t, fc.Mount(ctx))

	records := fc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "id-1", records[0].ID)
	assert.Equal(t, "id-2", records[1].ID)
}

func TestFormController_MountError(t *testing.T) {
	boom := errors.New("unreachable")
	fc := NewRegistrationForm(NewBlobRecordStore(failingKeyValue{err: boom}, testKey, logging.Logger), logging.Logger)

	err := fc.Mount(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFormController_RegisterFieldOrder(t *testing.T) {
	fc := NewFormController(newSpyStore(), logging.Logger)
	fc.RegisterField("b", &TextField{})
	fc.RegisterField("a", &TextField{})
	fc.RegisterField("b", NewMaskedField(utils.CPFMask))

	assert.Equal(t, []string{"b", "a"}, fc.FieldNames())

	fc.Submit(context.Background(), map[string]string{"b": "52998224725", "a": "x"})
	assert.Equal(t, "529.982.247-25", fc.Values()["b"])
}

func TestFormController_RegistrationFieldNames(t *testing.T) {
	fc := NewRegistrationForm(newSpyStore(), logging.Logger)
	assert.Equal(t, models.FieldNames, fc.FieldNames())
}

func TestFormController_Reset(t *testing.T) {
	fc, _ := setupFormController(t)
	data := validSubmission()
	data[models.FieldName] = ""
	fc.Submit(context.Background(), data)
	require.Equal(t, StateError, fc.State())

	fc.Reset()

	assert.Equal(t, StateIdle, fc.State())
	assert.Empty(t, fc.Errors())
	for name, value := range fc.Values() {
		assert.Empty(t, value, name)
	}
}

func TestFormController_ConcurrentSubmits(t *testing.T) {
	fc, store := setupFormController(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := fc.Submit(ctx, validSubmission())
			assert.True(t, result.OK(), fmt.Sprint(result.Errors))
		}()
	}
	wg.Wait()

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, n)
	assert.Len(t, fc.Records(), n)
}

func TestFormController_CreateLeavesFormUntouched(t *testing.T) {
	fc, store := setupFormController(t)
	ctx := context.Background()

	draft := validSubmission()
	draft[models.FieldEmail] = "nope"
	require.False(t, fc.Submit(ctx, draft).OK())
	formValues := fc.Values()
	formErrors := fc.Errors()

	invalid := validSubmission()
	invalid[models.FieldName] = ""
	result := fc.Create(ctx, invalid)
	assert.Equal(t, map[string]string{models.FieldName: "Nome obrigatório"}, result.Errors)
	assert.Equal(t, 0, store.appends)

	created := fc.Create(ctx, validSubmission())
	require.True(t, created.OK(), "errors: %v", created.Errors)
	assert.Equal(t, "529.982.247-25", created.Record.CPF)

	assert.Equal(t, formValues, fc.Values())
	assert.Equal(t, formErrors, fc.Errors())
	assert.Equal(t, StateError, fc.State())
	assert.Len(t, fc.Records(), 1)
}
