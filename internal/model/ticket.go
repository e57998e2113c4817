package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the longest title Azure DevOps accepts without complaint
// from the import wizard.
const MaxTitleLength = 100

type WorkItemType string

const (
	WorkItemTypeUserStory WorkItemType = "User Story"
	WorkItemTypeTask      WorkItemType = "Task"
	WorkItemTypeBug       WorkItemType = "Bug"
	WorkItemTypeFeature   WorkItemType = "Feature"
)

func (t WorkItemType) IsValid() bool {
	switch t {
	case WorkItemTypeUserStory, WorkItemTypeTask, WorkItemTypeBug, WorkItemTypeFeature:
		return true
	}
	return false
}

// Priority is an Azure DevOps priority, "1" (highest) to "4".
// Models emit it as a string or a number; both decode.
type Priority string

const (
	PriorityCritical Priority = "1"
	PriorityHigh     Priority = "2"
	PriorityMedium   Priority = "3"
	PriorityLow      Priority = "4"
)

const DefaultPriority = PriorityHigh

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// UnmarshalJSON never fails on a well-formed value. Numbers that are not
// whole, and any other shape, decode to "" so Normalize applies the default.
func (p *Priority) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Priority(strings.TrimSpace(s))
		return nil
	}

	*p = ""
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	*p = Priority(strconv.FormatInt(int64(f), 10))
	return nil
}

// Criteria is acceptance criteria as "- " bulleted text. A JSON array decodes
// into one bullet per element; elements that are not strings keep their JSON
// text.
type Criteria string

func (c *Criteria) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("acceptance criteria: %w", err)
		}
		*c = Criteria(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("acceptance criteria list: %w", err)
		}
		bullets := make([]string, 0, len(items))
		for _, item := range items {
			text := strings.TrimSpace(strings.TrimPrefix(criterionText(item), "- "))
			if text != "" {
				bullets = append(bullets, "- "+text)
			}
		}
		*c = Criteria(strings.Join(bullets, "\n"))
	default:
		*c = Criteria(data)
	}
	return nil
}

func criterionText(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return strings.TrimSpace(s) // null decodes to ""
	}
	return string(bytes.TrimSpace(item))
}

// Ticket is one Azure DevOps work item. JSON field names match the import
// column headers.
type Ticket struct {
	Type               WorkItemType `json:"Work Item Type" jsonschema:"enum=User Story,enum=Task,enum=Bug,enum=Feature"`
	Title              string       `json:"Title" jsonschema:"description=Clear and concise title of at most 100 characters"`
	Description        string       `json:"Description" jsonschema:"description=Detailed description of the work item"`
	AcceptanceCriteria Criteria     `json:"Acceptance Criteria" jsonschema:"description=Bulleted list of criteria using '- ' bullets"`
	Priority           Priority     `json:"Priority" jsonschema:"enum=1,enum=2,enum=3,enum=4"`
}

// TicketList is the structured-output envelope; JSON schema roots must be objects.
type TicketList struct {
	Tickets []Ticket `json:"tickets"`
}

// Normalize fills defaults and clamps fields to what the import accepts:
// unknown types become User Story, unknown priorities become 2, titles are
// cut to MaxTitleLength runes.
func (t Ticket) Normalize() Ticket {
	t.Type = WorkItemType(strings.TrimSpace(string(t.Type)))
	if !t.Type.IsValid() {
		t.Type = matchWorkItemType(string(t.Type))
	}

	t.Priority = Priority(strings.TrimSpace(string(t.Priority)))
	if !t.Priority.IsValid() {
		t.Priority = DefaultPriority
	}

	t.Title = strings.TrimSpace(t.Title)
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		t.Title = strings.TrimSpace(string([]rune(t.Title)[:MaxTitleLength]))
	}

	t.Description = strings.TrimSpace(t.Description)
	t.AcceptanceCriteria = Criteria(strings.TrimSpace(string(t.AcceptanceCriteria)))
	return t
}

func matchWorkItemType(s string) WorkItemType {
	for _, candidate := range []WorkItemType{WorkItemTypeUserStory, WorkItemTypeTask, WorkItemTypeBug, WorkItemTypeFeature} {
		if strings.EqualFold(s, string(candidate)) {
			return candidate
		}
	}
	return WorkItemTypeUserStory
}
