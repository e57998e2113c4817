package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"basegraph.app/specflow/internal/model"
)

// ParseTickets reads a ticket list out of model output. It accepts a bare
// JSON array or a {"tickets": [...]} object, optionally wrapped in a markdown
// code fence. Prose before the payload is skipped and anything after it is
// ignored. Every ticket is normalized.
func ParseTickets(raw string) ([]model.Ticket, error) {
	content := stripFence(strings.TrimSpace(raw))

	start := strings.IndexAny(content, "[{")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON found", ErrMalformedTickets)
	}

	tickets, err := decodeTickets(content[start:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTickets, err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("%w: list is empty", ErrMalformedTickets)
	}

	for i := range tickets {
		tickets[i] = tickets[i].Normalize()
	}
	return tickets, nil
}

// stripFence removes a code fence that wraps the whole answer. Fences inside
// string values are left alone.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeTickets decodes the first JSON value in s; trailing bytes are not read.
func decodeTickets(s string) ([]model.Ticket, error) {
	dec := json.NewDecoder(strings.NewReader(s))

	if s[0] == '[' {
		var tickets []model.Ticket
		if err := dec.Decode(&tickets); err != nil {
			return nil, err
		}
		return tickets, nil
	}

	var list model.TicketList
	if err := dec.Decode(&list); err != nil {
		return nil, err
	}
	return list.Tickets, nil
}
