package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"french accents", "Coque Renforcée", "coque-renforcee"},
		{"grave and circumflex", "Verre Trempé Ultra-Résistant", "verre-trempe-ultra-resistant"},
		{"cedilla", "Façade Aluminium", "facade-aluminium"},
		{"ligature", "Cœur de Gamme", "coeur-de-gamme"},
		{"punctuation", "Hello   World!", "hello-world"},
		{"numbers kept", "iPhone 15 Pro Max", "iphone-15-pro-max"},
		{"leading trailing", "  --Promo--  ", "promo"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}
