package workflow

import (
	"fmt"
	"strings"
)

const readerSystemPrompt = `You are a senior solutions architect reviewing a requirements document before it goes to the delivery team.
List the gaps: missing acceptance criteria, unstated assumptions, ambiguous wording, absent non-functional requirements and edge cases nobody mentioned.
Be concrete. Refer to the requirement text when you point something out.`

const writerSystemPrompt = `You are a technical product owner turning requirements into Azure DevOps work items.
You answer with JSON only: no prose, no markdown code fences.`

func readerUserPrompt(specText, feedback string) string {
	var b strings.Builder
	b.WriteString("Analyze this requirement text. Identify gaps and missing criteria.\n")
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		fmt.Fprintf(&b, "\nIMPORTANT: the reviewer rejected the previous draft. Address this feedback: %s\n", feedback)
	}
	b.WriteString("\nREQUIREMENT TEXT:\n")
	b.WriteString(specText)
	b.WriteString("\n")
	return b.String()
}

func writerUserPrompt(specText, analysis string) string {
	var b strings.Builder
	b.WriteString(`Based on the original request and the architect's gap analysis below, write 3-5 structured Azure DevOps work items.

Return a JSON object {"tickets": [...]}. Each work item has exactly these fields:
- "Work Item Type": one of "User Story", "Task", "Bug", "Feature"
- "Title": a clear, concise title (max 100 characters)
- "Description": detailed description of the work item
- "Acceptance Criteria": bulleted list of criteria (use "- " for bullets)
- "Priority": one of "1", "2", "3", "4"
`)
	b.WriteString("\nORIGINAL REQUEST:\n")
	b.WriteString(specText)
	b.WriteString("\n\nARCHITECT'S ANALYSIS:\n")
	b.WriteString(analysis)
	b.WriteString("\n")
	return b.String()
}
