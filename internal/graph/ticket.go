package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kataras/golog"
)

// StatusOpen is the status of every newly stored ticket.
const StatusOpen = "Open"

// TicketRecord is the full record written alongside the ticket passage.
type TicketRecord struct {
	TicketID       string `json:"ticket_id"`
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	Email          string `json:"email"`
	Classification string `json:"classification"`
	Priority       string `json:"priority"`
	TeamSolution   string `json:"team_solution"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// Metadata flattens the record into passage metadata.
func (r TicketRecord) Metadata() map[string]any {
	return map[string]any{
		"ticket_id":      r.TicketID,
		"subject":        r.Subject,
		"description":    r.Description,
		"email":          r.Email,
		"classification": r.Classification,
		"priority":       r.Priority,
		"team_solution":  r.TeamSolution,
		"status":         r.Status,
		"created_at":     r.CreatedAt,
	}
}

// IDGenerator issues ticket IDs.
type IDGenerator interface {
	NextID(now time.Time) string
}

// UnixSecondIDs issues "TICKET-<unix seconds>". Two tickets created within
// the same second share an ID.
type UnixSecondIDs struct{}

func (UnixSecondIDs) NextID(now time.Time) string {
	return "TICKET-" + strconv.FormatInt(now.Unix(), 10)
}

// MonotonicIDs keeps the "TICKET-<digits>" shape but never repeats a number
// within the process: a second already used is bumped to last+1.
type MonotonicIDs struct {
	mu   sync.Mutex
	last int64
}

func (m *MonotonicIDs) NextID(now time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := now.Unix()
	if n <= m.last {
		n = m.last + 1
	}
	m.last = n
	return "TICKET-" + strconv.FormatInt(n, 10)
}

// storeTicket assigns the ticket ID and writes the ticket exactly once.
func (n *triageNodes) storeTicket(ctx context.Context, s TriageState) (TriageUpdate, error) {
	golog.Info("TRIAGE_GRAPH: Storing ticket...")
	now := n.now()
	record := TicketRecord{
		TicketID:       n.ids.NextID(now),
		Subject:        s.Subject,
		Description:    s.Description,
		Email:          s.Email,
		Classification: s.Classification,
		Priority:       s.Priority,
		TeamSolution:   s.TeamSolution,
		Status:         StatusOpen,
		CreatedAt:      now.Format(time.RFC3339Nano),
	}

	if dump, err := json.MarshalIndent(record, "", "  "); err == nil {
		golog.Debugf("TRIAGE_GRAPH: ticket record:\n%s", dump)
	}

	passage := Passage{
		Content:  fmt.Sprintf("Subject: %s\nPriority: %s", s.Subject, s.Priority),
		Metadata: record.Metadata(),
	}
	if err := n.store.Append(ctx, passage); err != nil {
		return TriageUpdate{}, fmt.Errorf("storing ticket %s: %w", record.TicketID, err)
	}
	return TriageUpdate{}.WithTicketID(record.TicketID), nil
}
