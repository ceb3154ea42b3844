package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streamnotifier/internal/entity"
)

func TestRenderTemplate(t *testing.T) {
	vars := TemplateVars{
		ClientName:     "Ana",
		ServiceName:    "Netflix Premium",
		ExpirationDate: entity.NewDate(2024, time.June, 5),
	}

	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{name: "default template", tpl: entity.DefaultTemplate,
			want: "Hola Ana, tu servicio Netflix Premium vence el 2024-06-05. Por favor renueva tu suscripción."},
		{name: "repeated placeholders", tpl: "{nombre} {nombre} {fecha}", want: "Ana Ana 2024-06-05"},
		{name: "no placeholders", tpl: "Gracias", want: "Gracias"},
		{name: "unknown placeholder kept", tpl: "{precio} {servicio}", want: "{precio} Netflix Premium"},
		{name: "empty", tpl: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderTemplate(tt.tpl, vars)
			assert.Equal(t, tt.want, got)
			for _, ph := range []string{"{nombre}", "{servicio}", "{fecha}"} {
				assert.False(t, strings.Contains(got, ph))
			}
		})
	}
}

func TestRenderTemplate_ValuesAreNotReexpanded(t *testing.T) {
	got := RenderTemplate("{nombre}/{servicio}", TemplateVars{ClientName: "{servicio}", ServiceName: "X"})
	assert.Equal(t, "{servicio}/X", got)
}
