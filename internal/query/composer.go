package query

import (
	"fmt"
	"strings"

	"campaign-scribe/pkg/types"
)

// Compose renders a typed query result as display text. Pure: identical
// input yields identical output.
func Compose(result types.QueryResult) string {
	switch result.Kind {
	case types.ResultInventory:
		return composeInventory(result.Inventory)
	case types.ResultStats:
		return composeStats(result.Stats)
	case types.ResultLocationEvents:
		return composeLocationEvents(result.LocationEvents)
	case types.ResultSessionSummary:
		return composeSessionSummary(result.SessionSummary)
	case types.ResultClarification:
		return composeClarification(result.Clarification)
	case types.ResultHelp:
		return result.Help.Message
	default:
		return "I could not make sense of that result."
	}
}

func composeInventory(inv *types.InventoryResult) string {
	if len(inv.Items) == 0 {
		return fmt.Sprintf("%s carries nothing right now.", inv.Character.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s's inventory:\n", inv.Character.Name)
	for _, item := range inv.Items {
		b.WriteString("- " + item.ItemName)
		var notes []string
		if item.SessionNumber != nil {
			notes = append(notes, fmt.Sprintf("session %d", *item.SessionNumber))
		}
		if item.LocationName != "" {
			notes = append(notes, item.LocationName)
		}
		if !item.StartAt.IsZero() {
			notes = append(notes, item.StartAt.Format("2006-01-02"))
		}
		if len(notes) > 0 {
			b.WriteString(" (" + strings.Join(notes, ", ") + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func composeStats(stats *types.StatsResult) string {
	var b strings.Builder

	if stats.Requested != "" {
		if snap, ok := stats.Stats[stats.Requested]; ok && snap != nil {
			fmt.Fprintf(&b, "%s's %s is %d.\n", stats.Character.Name, stats.Requested, snap.Value)
		} else {
			fmt.Fprintf(&b, "No %s value is recorded for %s.\n", stats.Requested, stats.Character.Name)
		}
	}

	slots := make([]string, 0, len(types.AllStatTypes))
	for _, st := range types.AllStatTypes {
		if snap, ok := stats.Stats[st]; ok && snap != nil {
			slots = append(slots, fmt.Sprintf("%s %d", st, snap.Value))
		} else {
			slots = append(slots, fmt.Sprintf("%s ?", st))
		}
	}
	fmt.Fprintf(&b, "%s: %s", stats.Character.Name, strings.Join(slots, ", "))
	return b.String()
}

func composeLocationEvents(le *types.LocationEventsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Events at %s", le.Location.Name)
	if le.Session != nil {
		fmt.Fprintf(&b, " (session %d)", le.Session.Number)
	}
	b.WriteString(":\n")

	if len(le.Events) == 0 {
		b.WriteString("Nothing on record.")
		return b.String()
	}
	for _, e := range le.Events {
		fmt.Fprintf(&b, "- [%s] %s\n", e.OccurredAt.Format("2006-01-02 15:04"), e.Summary)
		if len(e.Snippets) > 0 {
			fmt.Fprintf(&b, "  %q\n", e.Snippets[0].Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func composeSessionSummary(ss *types.SessionSummaryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %d", ss.Session.Number)
	if !ss.Session.Date.IsZero() {
		fmt.Fprintf(&b, " (%s)", ss.Session.Date.Format("2006-01-02"))
	}
	b.WriteString("\n")

	switch {
	case ss.Summary != "":
		b.WriteString(ss.Summary)
	case len(ss.Events) > 0:
		for _, e := range ss.Events {
			fmt.Fprintf(&b, "- [%s] %s\n", e.OccurredAt.Format("15:04"), e.Summary)
		}
	default:
		b.WriteString("No summary or events recorded for this session.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func composeClarification(c *types.ClarificationResult) string {
	if len(c.Candidates) == 0 {
		return c.Reason
	}
	var b strings.Builder
	b.WriteString(c.Reason + "\n")
	for i, cand := range c.Candidates {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, cand.Kind, cand.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}
