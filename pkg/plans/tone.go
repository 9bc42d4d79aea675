package plans

import "strings"

// Tone selects the copywriting voice injected into the generation prompt.
type Tone string

const (
	ToneProfessional Tone = "profesional"
	ToneLuxury       Tone = "lujoso"
	ToneFamily       Tone = "familiar"
	ToneInvestor     Tone = "inversionista"
	ToneModern       Tone = "moderno"
	ToneUrgent       Tone = "urgente"
	ToneEmotional    Tone = "emocional"
)

var toneDescriptions = map[Tone]string{
	ToneProfessional: "profesional",
	ToneLuxury:       "sofisticado, elegante y exclusivo para compradores de alto poder adquisitivo",
	ToneFamily:       "cálido, acogedor y centrado en el estilo de vida familiar",
	ToneInvestor:     "analítico, orientado al ROI y potencial de apreciación",
	ToneModern:       "fresco, contemporáneo y minimalista para jóvenes profesionales",
	ToneUrgent:       "urgencia y escasez, oportunidad única e irrepetible",
	ToneEmotional:    "emocional y aspiracional que conecta con los sueños del comprador",
}

// ParseTone maps a requested tone to a known Tone.
// Absent or unrecognized tones resolve to ToneProfessional.
func ParseTone(s string) Tone {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := toneDescriptions[t]; ok {
		return t
	}
	return ToneProfessional
}

// Description returns the phrase describing the tone in the prompt.
func (t Tone) Description() string {
	if d, ok := toneDescriptions[t]; ok {
		return d
	}
	return toneDescriptions[ToneProfessional]
}

func (t Tone) String() string {
	return string(t)
}
