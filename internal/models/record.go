package models

import (
	"time"
)

// Form field names. The order here is the form and table column order.
const (
	FieldName    = "name"
	FieldBirth   = "birth"
	FieldCPF     = "cpf"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldAddress = "address"
	FieldObs     = "obs"
)

// FieldNames lists every form field in display order
var FieldNames = []string{
	FieldName,
	FieldBirth,
	FieldCPF,
	FieldPhone,
	FieldEmail,
	FieldAddress,
	FieldObs,
}

// ObsMaxLength is the maximum number of characters accepted in Obs
const ObsMaxLength = 300

// Record is a stored registration. Records are never modified after being
// stored; they are only appended and removed by ID.
type Record struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Birth     string    `bson:"birth" json:"birth"`
	CPF       string    `bson:"cpf" json:"cpf"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email" json:"email"`
	Address   string    `bson:"address" json:"address"`
	Obs       string    `bson:"obs" json:"obs"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// RecordInput is a candidate record as submitted through the form or the API.
// Fields may be empty; validation decides.
type RecordInput struct {
	Name    string `json:"name" form:"name" validate:"required,letters"`
	Birth   string `json:"birth" form:"birth" validate:"required,birthdate"`
	CPF     string `json:"cpf" form:"cpf" validate:"required,cpfpattern"`
	Phone   string `json:"phone" form:"phone" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Address string `json:"address" form:"address" validate:"required"`
	Obs     string `json:"obs" form:"obs" validate:"max=300"`
}

// ToMap returns the input keyed by field name
func (in RecordInput) ToMap() map[string]string {
	return map[string]string{
		FieldName:    in.Name,
		FieldBirth:   in.Birth,
		FieldCPF:     in.CPF,
		FieldPhone:   in.Phone,
		FieldEmail:   in.Email,
		FieldAddress: in.Address,
		FieldObs:     in.Obs,
	}
}

// RecordInputFromMap builds an input from field-name keyed values; unknown
// keys are ignored.
func RecordInputFromMap(values map[string]string) RecordInput {
	return RecordInput{
		Name:    values[FieldName],
		Birth:   values[FieldBirth],
		CPF:     values[FieldCPF],
		Phone:   values[FieldPhone],
		Email:   values[FieldEmail],
		Address: values[FieldAddress],
		Obs:     values[FieldObs],
	}
}

// NewRecord turns a validated input into a record with the given identity.
// CreatedAt is kept in UTC at millisecond precision, which every backend
// round-trips exactly.
func NewRecord(id string, in RecordInput, createdAt time.Time) Record {
	return Record{
		ID:        id,
		Name:      in.Name,
		Birth:     in.Birth,
		CPF:       in.CPF,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		Obs:       in.Obs,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}
