package providers

import (
	"fmt"
	"strings"
)

// SystemPrompt instructs the model to answer with the JSON document only.
const SystemPrompt = "Eres un experto en marketing inmobiliario. Responde ÚNICAMENTE con JSON válido, sin texto adicional, sin markdown, sin backticks."

// BuildPrompt renders the user prompt for a listing. The output depends
// only on req, so equal requests produce byte-identical prompts.
func BuildPrompt(req *GenerationRequest) string {
	var b strings.Builder

	b.WriteString("Genera contenido de marketing inmobiliario en español para esta propiedad:\n\n")
	fmt.Fprintf(&b, "Dirección: %s\n", strings.TrimSpace(req.Address))
	fmt.Fprintf(&b, "Precio: %s\n", req.Price.String())
	fmt.Fprintf(&b, "Tipo: %s\n", orDefault(req.PropertyType, "casa"))
	fmt.Fprintf(&b, "Recámaras: %s\n", orDefault(string(req.Bedrooms), "N/A"))
	fmt.Fprintf(&b, "Baños: %s\n", orDefault(string(req.Bathrooms), "N/A"))
	fmt.Fprintf(&b, "Pies cuadrados: %s\n", orDefault(string(req.SquareFeet), "N/A"))
	fmt.Fprintf(&b, "Año: %s\n", orDefault(string(req.YearBuilt), "N/A"))
	fmt.Fprintf(&b, "Características: %s\n", orDefault(req.Features, "No especificadas"))
	fmt.Fprintf(&b, "Tono: %s\n\n", req.Tone.Description())

	b.WriteString("Responde SOLO con este JSON exacto, sin texto antes ni después:\n")
	b.WriteString(`{"mls":"descripción MLS profesional de 150-200 palabras",`)
	b.WriteString(`"posts":["post para Instagram con emojis y hashtags","post para Facebook","post para LinkedIn"],`)
	b.WriteString(`"email":"email de marketing para compradores potenciales",`)
	b.WriteString(`"video":"guion de video de 60 segundos para redes sociales"}`)

	return b.String()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
