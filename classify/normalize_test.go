package classify

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "ANALIZAR Tendencias", "analizar tendencias"},
		{"strips accents", "¿Cuál es el ANÁLISIS?", "cual es el analisis"},
		{"hyphens become spaces", "in-depth review", "in depth review"},
		{"punctuation squeezed", "hola,   ¿cómo...estás?!", "hola como estas"},
		{"umlauts", "über Zürich", "uber zurich"},
		{"tilde n survives as n", "niño pequeño", "nino pequeno"},
		{"digits kept", "top 10 del 2023", "top 10 del 2023"},
		{"empty", "", ""},
		{"only punctuation", "¡¿!?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
