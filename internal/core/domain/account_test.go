package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePixKeyType(t *testing.T) {
	tests := []struct {
		input   string
		want    PixKeyType
		wantErr bool
	}{
		{"EMAIL", PixKeyEmail, false},
		{"email", PixKeyEmail, false},
		{" cpf ", PixKeyCPF, false},
		{"PHONE", PixKeyPhone, false},
		{"RANDOM", PixKeyRandom, false},
		{"pix", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePixKeyType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
