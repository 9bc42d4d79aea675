package providers

import (
	"strings"
	"testing"

	"listingforge/gateway/pkg/plans"
)

func TestBuildPrompt_Defaults(t *testing.T) {
	prompt := BuildPrompt(&GenerationRequest{Address: "Calle 5", Price: "100"})

	for _, want := range []string{
		"Dirección: Calle 5\n",
		"Precio: 100\n",
		"Tipo: casa\n",
		"Recámaras: N/A\n",
		"Baños: N/A\n",
		"Pies cuadrados: N/A\n",
		"Año: N/A\n",
		"Características: No especificadas\n",
		"Tono: profesional\n",
		`"posts":[`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_FieldsAndTone(t *testing.T) {
	req := &GenerationRequest{
		Address:      "  Av. Juárez 10 ",
		Price:        "2,000,000",
		PropertyType: "loft",
		Bedrooms:     "2",
		Bathrooms:    "1.5",
		SquareFeet:   "900",
		YearBuilt:    "2019",
		Features:     "roof garden",
		Tone:         plans.ToneUrgent,
	}
	prompt := BuildPrompt(req)

	for _, want := range []string{
		"Dirección: Av. Juárez 10\n",
		"Tipo: loft\n",
		"Baños: 1.5\n",
		"Características: roof garden\n",
		"Tono: urgencia y escasez, oportunidad única e irrepetible\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if BuildPrompt(req) != prompt {
		t.Error("BuildPrompt is not deterministic")
	}
}

func TestGenerationRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		missing []string
	}{
		{"valid", GenerationRequest{Address: "a", Price: "1"}, nil},
		{"empty address", GenerationRequest{Address: "", Price: "300000"}, []string{"address"}},
		{"blank price", GenerationRequest{Address: "a", Price: "  "}, []string{"price"}},
		{"both missing", GenerationRequest{}, []string{"address", "price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.missing == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if strings.Join(ve.Fields, ",") != strings.Join(tt.missing, ",") {
				t.Errorf("Fields = %v, want %v", ve.Fields, tt.missing)
			}
		})
	}
}
