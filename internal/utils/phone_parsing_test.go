package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhoneNumber(t *testing.T) {
	tests := []struct {
		name        string
		phoneString string
		wantErr     bool
		ddi         string
		ddd         string
		valor       string
		full        string
	}{
		{
			name:        "Masked Brazilian mobile",
			phoneString: "(21) 98765-4321",
			ddi:         "55",
			ddd:         "21",
			valor:       "987654321",
			full:        "+5521987654321",
		},
		{
			name:        "Raw Brazilian mobile",
			phoneString: "11999887766",
			ddi:         "55",
			ddd:         "11",
			valor:       "999887766",
			full:        "+5511999887766",
		},
		{
			name:        "International E.164",
			phoneString: "+12125551234",
			ddi:         "1",
			valor:       "2125551234",
			full:        "+12125551234",
		},
		{name: "Too short", phoneString: "(21) 123", wantErr: true},
		{name: "Letters", phoneString: "abc", wantErr: true},
		{name: "Empty", phoneString: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParsePhoneNumber(tt.phoneString)
			if tt.wantErr {
				assert.Error(t, err, "ParsePhoneNumber(%q) should return error", tt.phoneString)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.ddi, result.DDI)
			assert.Equal(t, tt.ddd, result.DDD)
			assert.Equal(t, tt.valor, result.Valor)
			assert.Equal(t, tt.full, result.Full)
		})
	}
}

func TestPhoneTelURI(t *testing.T) {
	uri, ok := PhoneTelURI("(21) 98765-4321")
	assert.True(t, ok)
	assert.Equal(t, "tel:+5521987654321", uri)

	uri, ok = PhoneTelURI("(00) 00000-0000")
	assert.False(t, ok)
	assert.Empty(t, uri)
}
