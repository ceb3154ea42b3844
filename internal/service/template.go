package service

import (
	"strings"

	"streamnotifier/internal/entity"
)

// TemplateVars are the values substituted into a message template.
type TemplateVars struct {
	ClientName     string
	ServiceName    string
	ExpirationDate entity.Date
}

// RenderTemplate replaces every {nombre}, {servicio} and {fecha} in tpl.
// Other text, including unknown placeholders, is kept as is.
func RenderTemplate(tpl string, vars TemplateVars) string {
	return strings.NewReplacer(
		"{nombre}", vars.ClientName,
		"{servicio}", vars.ServiceName,
		"{fecha}", vars.ExpirationDate.String(),
	).Replace(tpl)
}
