package llm

import (
	"fmt"
	"strings"

	"github.com/presalekit/estimator/internal/entity"
)

// JSONSkeletonEpics is the fixed structural example the model is told to
// follow for the epic/task variant.
const JSONSkeletonEpics = `{
  "epics": [
    {
      "id": "E1",
      "title": "Epic title",
      "tasks": [
        {
          "id": "T1",
          "title": "Task title",
          "description": "What the task delivers",
          "type": "functional",
          "role": "backend",
          "pert_hours": {"optimistic": 2, "most_likely": 4, "pessimistic": 8}
        }
      ]
    }
  ]
}`

// JSONSkeletonRows is the structural example for the flattened story-row
// variant.
const JSONSkeletonRows = `{
  "rows": [
    {
      "id": "R1",
      "title": "Story title",
      "description": "What the story delivers",
      "type": "functional",
      "role": "backend",
      "pert_hours": {"optimistic": 2, "most_likely": 4, "pessimistic": 8}
    }
  ]
}`

// SkeletonForVariant returns the structural example bound to a variant.
func SkeletonForVariant(variant entity.Variant) string {
	if variant == entity.VariantRows {
		return JSONSkeletonRows
	}
	return JSONSkeletonEpics
}

// FileSection labels one extracted file's text so the model can attribute
// requirements to their source.
func FileSection(filename, text string) string {
	return fmt.Sprintf("----- FILE: %s -----\n%s", filename, text)
}

// LimitPromptText truncates combined document text to a fixed character
// budget so prompt size cannot grow without bound.
func LimitPromptText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// BuildPrompt merges the user instruction plus extracted document text with
// the schema contract and structural skeleton into the initial instruction.
func BuildPrompt(userPrompt, schemaText, skeleton string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that must return ONLY valid JSON.\n")
	b.WriteString("The JSON must strictly match this schema:\n")
	b.WriteString(schemaText)
	b.WriteString("\nYou MUST strictly follow this structure exactly as shown:\n")
	b.WriteString(skeleton)
	b.WriteString("\nUser prompt: ")
	b.WriteString(userPrompt)
	b.WriteString("\nReturn ONLY JSON with no extra text.")
	return b.String()
}

// BuildRepairPrompt restates the contract, names the defect of the rejected
// output, and includes the invalid output verbatim so the model can correct
// rather than regenerate blindly.
func BuildRepairPrompt(schemaText, skeleton, defect, invalidOutput string) string {
	var b strings.Builder
	b.WriteString("Return ONLY corrected JSON that matches the schema EXACTLY. No other text.\n")
	b.WriteString("Schema:\n")
	b.WriteString(schemaText)
	b.WriteString("\nYou MUST strictly follow this structure exactly as shown:\n")
	b.WriteString(skeleton)
	if defect != "" {
		b.WriteString("\nYour previous output was rejected because: ")
		b.WriteString(defect)
		b.WriteString("\nReplace the defective parts; keep everything that was already correct.")
	}
	b.WriteString("\nInvalid output:\n")
	b.WriteString(invalidOutput)
	b.WriteString("\n")
	return b.String()
}
