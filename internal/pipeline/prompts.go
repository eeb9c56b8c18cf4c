package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medconnect/agent/internal/domain"
)

const classifierSystem = `You classify patient requests for a medical appointment assistant.
Respond with EXACTLY ONE word from this list and nothing else:
search     - the user wants to look up doctors, specialties, fees or appointments
book       - the user wants to create a new appointment
reschedule - the user wants to move an existing appointment to another time
cancel     - the user wants to cancel an existing appointment
unknown    - none of the above fits

Do not explain. Do not add punctuation. One word only.`

// buildClassifierPrompt includes already-collected slots so follow-up
// answers ("tomorrow at 3pm") classify the same as the original request
func buildClassifierPrompt(utterance string, slots domain.Slots) string {
	var sb strings.Builder
	if len(slots) > 0 {
		sb.WriteString("Context collected so far:\n")
		sb.WriteString(formatSlots(slots))
		sb.WriteString("\n")
	}
	sb.WriteString("User message: ")
	sb.WriteString(utterance)
	return sb.String()
}

const extractorSystem = `You extract booking details from patient messages for a medical appointment assistant.
Return ONLY a JSON object with these keys, using "" for anything not mentioned:
  "patient_name"     - the patient's own name
  "doctor_reference" - the doctor's name OR the specialty the user asked about
  "appointment_time" - the requested date and time, normalized to "YYYY-MM-DD HH:MM" when possible
  "reason"           - the reason for the visit

Rules:
- Return raw JSON only, no markdown fencing, no explanations.
- Never invent values. If the message does not state it, use "".
- Keep the user's wording for the reason.`

func buildExtractorPrompt(utterance string) string {
	return "Message: " + utterance
}

const synthesizerSystem = `You are an SQL generator for a PostgreSQL database.
CRITICAL RULES:
- Return ONLY raw SQL
- DO NOT include explanations, comments, or markdown
- Output must start directly with SELECT / INSERT / UPDATE / DELETE
- You MUST only use the tables and columns that exist in the schema below.
- If the user mentions a category (e.g., cardiologists), do NOT invent a table.
  Filter the doctors table using WHERE specialty ILIKE '%%<category>%%'.
- There is NO table named cardiologists, dermatologists, etc.

DATABASE SCHEMA:
%s`

// buildSynthesizerPrompt renders the request for one candidate query.
// The resolved doctor key is passed as a literal id so generation never
// has to guess among name matches.
func buildSynthesizerPrompt(intent domain.Intent, doctor *domain.ResolvedEntity, slots domain.Slots, utterance string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Operation: %s (%s)\n", intent.Tag, intent.Sub))
	if doctor != nil && doctor.Resolved {
		sb.WriteString(fmt.Sprintf("Resolved doctor_id: %d\n", doctor.Key))
	}
	if len(slots) > 0 {
		sb.WriteString("Collected details:\n")
		sb.WriteString(formatSlots(slots))
	}
	sb.WriteString("User request: ")
	sb.WriteString(utterance)
	sb.WriteString("\nSQL:")
	return sb.String()
}

const responderSystem = `You are MedConnect, a professional medical appointment assistant.

OPERATIONAL GUIDELINES:
1. You are given the outcome of the user's request. Phrase it for the user.
2. If the outcome describes a scheduling conflict, explain that the slot is taken and suggest picking another time.
3. If the outcome describes an error, explain the problem in plain language.

CRITICAL RULES:
- Respond ONLY with the final answer to the user.
- NEVER reveal internal reasoning or SQL.
- NEVER use placeholders like [patient_name].
- Be concise and professional.`

func buildResponderPrompt(utterance, outcome string) string {
	return fmt.Sprintf("User: %s\nOutcome: %s", utterance, outcome)
}

func formatSlots(slots domain.Slots) string {
	names := make([]string, 0, len(slots))
	for name, value := range slots {
		if value != "" {
			names = append(names, string(name))
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", name, slots[domain.SlotName(name)]))
	}
	return sb.String()
}
