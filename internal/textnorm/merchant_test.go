package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "spanish preposition before merchant",
			description: "tacos en El Fogón",
			want:        "El Fogón",
		},
		{
			name:        "english preposition before merchant",
			description: "lunch at Starbucks",
			want:        "Starbucks",
		},
		{
			name:        "multi word merchant",
			description: "despensa en La Comer Polanco",
			want:        "La Comer Polanco",
		},
		{
			name:        "merchant with ampersand",
			description: "ropa de H&M",
			want:        "H&M",
		},
		{
			name:        "bare capitalized merchant",
			description: "Amazon compra mensual",
			want:        "Amazon",
		},
		{
			name:        "all lowercase yields nothing",
			description: "compré café en el oxxo",
			want:        "",
		},
		{
			name:        "empty description",
			description: "",
			want:        "",
		},
		{
			name:        "short candidate rejected",
			description: "fui al Dr",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMerchant(tt.description))
		})
	}
}
