package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	symptomDisclaimer  = "This analysis is not a substitute for professional medical advice, diagnosis, or treatment. Always seek the advice of your physician or other qualified health provider with any questions you may have regarding a medical condition."
	firstAidDisclaimer = "This guidance is not a substitute for professional medical advice, diagnosis, or treatment. In case of emergency, call emergency services immediately."
)

var urgencyLevels = map[string]bool{"low": true, "medium": true, "high": true, "emergency": true}

// SymptomInput is what the caller describes.
type SymptomInput struct {
	Symptoms       []string `json:"symptoms"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	MedicalHistory string   `json:"medicalHistory,omitempty"`
}

type Condition struct {
	Condition   string `json:"condition"`
	Probability string `json:"probability"`
}

// SymptomAnalysis is the normalized LLM answer. Degraded is set when the
// defaults were substituted because the completion failed.
type SymptomAnalysis struct {
	PossibleConditions []Condition `json:"possibleConditions"`
	Recommendations    []string    `json:"recommendations"`
	UrgencyLevel       string      `json:"urgencyLevel"`
	Disclaimer         string      `json:"disclaimer"`
	Degraded           bool        `json:"degraded,omitempty"`
}

type FirstAid struct {
	Situation  string   `json:"situation"`
	Steps      []string `json:"steps"`
	Warnings   []string `json:"warnings"`
	Disclaimer string   `json:"disclaimer"`
	Degraded   bool     `json:"degraded,omitempty"`
}

func symptomPrompt(in SymptomInput) string {
	var b strings.Builder
	b.WriteString("As a medical assistant, analyze the following symptoms and provide potential diagnoses and recommendations.\n\n")
	fmt.Fprintf(&b, "Patient information:\n- Age: %d\n- Gender: %s\n- Symptoms: %s\n", in.Age, in.Gender, strings.Join(in.Symptoms, ", "))
	if in.MedicalHistory != "" {
		fmt.Fprintf(&b, "- Medical history: %s\n", in.MedicalHistory)
	}
	b.WriteString(`
Provide 2-5 possible conditions with a probability of low, medium or high, general recommendations,
and an urgency level of low, medium, high or emergency. Respond with JSON only:
{"possibleConditions":[{"condition":"","probability":""}],"recommendations":[""],"urgencyLevel":"","disclaimer":""}
The disclaimer must state that this is not a replacement for professional medical advice.`)
	return b.String()
}

func firstAidPrompt(situation string) string {
	return fmt.Sprintf(`As a medical assistant, provide first aid guidance for the following situation.

Situation: %s

Provide step-by-step first aid instructions and important warnings. Respond with JSON only:
{"situation":"","steps":[""],"warnings":[""],"disclaimer":""}
The disclaimer must state that this is not a replacement for professional medical advice or emergency services.`, situation)
}

// parseSymptomAnalysis never fails: malformed or empty JSON yields defaults.
func parseSymptomAnalysis(raw string) SymptomAnalysis {
	var out SymptomAnalysis
	_ = json.Unmarshal([]byte(stripFence(raw)), &out)

	conds := out.PossibleConditions[:0]
	for _, c := range out.PossibleConditions {
		if strings.TrimSpace(c.Condition) != "" {
			conds = append(conds, c)
		}
	}
	out.PossibleConditions = conds
	if out.PossibleConditions == nil {
		out.PossibleConditions = []Condition{}
	}
	out.Recommendations = nonEmpty(out.Recommendations)
	out.UrgencyLevel = strings.ToLower(strings.TrimSpace(out.UrgencyLevel))
	if !urgencyLevels[out.UrgencyLevel] {
		out.UrgencyLevel = "low"
	}
	if strings.TrimSpace(out.Disclaimer) == "" {
		out.Disclaimer = symptomDisclaimer
	}
	return out
}

func parseFirstAid(raw, situation string) FirstAid {
	var out FirstAid
	_ = json.Unmarshal([]byte(stripFence(raw)), &out)

	if strings.TrimSpace(out.Situation) == "" {
		out.Situation = situation
	}
	out.Steps = nonEmpty(out.Steps)
	out.Warnings = nonEmpty(out.Warnings)
	if strings.TrimSpace(out.Disclaimer) == "" {
		out.Disclaimer = firstAidDisclaimer
	}
	return out
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// render formats guidance as a chat reply.
func (f FirstAid) render() string {
	var b strings.Builder
	b.WriteString(f.Situation)
	b.WriteString("\n\n")
	if len(f.Steps) > 0 {
		b.WriteString("**Steps:**\n")
		for i, s := range f.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}
	if len(f.Warnings) > 0 {
		b.WriteString("**Important Warnings:**\n")
		for _, w := range f.Warnings {
			fmt.Fprintf(&b, "• %s\n", w)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "_%s_", f.Disclaimer)
	return b.String()
}
