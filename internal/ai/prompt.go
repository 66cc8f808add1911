package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// extractionSchema is the JSON schema both LLM backends must answer with.
var extractionSchema = reflectSchema(&extraction{})

func reflectSchema(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return r.Reflect(v)
}

func schemaJSON() string {
	b, _ := json.Marshal(extractionSchema)
	return string(b)
}

func buildSystemPrompt() string {
	return fmt.Sprintf(`You extract appointment requests for a hospital booking desk.

Departments:
%s

Rules:
- Copy the date and time expressions exactly as the patient wrote them, do not convert or resolve them
- date_phrase is the day only (e.g. "next friday", "tomorrow", "12th March"), time_phrase is the time of day only (e.g. "3pm", "at 10:30")
- department must be one of the departments above, chosen from what the patient describes (a dentist visit is Dentistry, chest pain is Cardiology)
- Use an empty string for anything that is not clearly present

Return valid JSON matching the required schema.`, "- "+strings.Join(Departments(), "\n- "))
}

func buildUserPrompt(text string) string {
	return fmt.Sprintf("Patient request: %s", text)
}
