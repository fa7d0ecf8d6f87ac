package character

import (
	"fmt"
	"strings"

	"campaign-scribe/pkg/types"
)

// Stored card text comes in two shapes: the structured block format this
// service writes ("Title" line followed by value lines) and a legacy
// "Field: value" format from earlier hand-kept notes. Both grammars yield the
// same CharacterCard; the structured one is tried first.

var cardFieldTitles = []string{
	"Name", "Role", "Affiliation", "Traits", "Goals", "Last Location", "Status", "Notes",
}

// FormatCardText serializes a card to the structured block format used for
// storage.
func FormatCardText(card types.CharacterCard) string {
	var b strings.Builder
	writeBlock := func(title, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", title, value)
	}
	writeListBlock := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		var lines []string
		for _, item := range items {
			lines = append(lines, "- "+item)
		}
		writeBlock(title, strings.Join(lines, "\n"))
	}

	writeBlock("Name", card.Name)
	writeBlock("Role", card.Role)
	writeBlock("Affiliation", card.Affiliation)
	writeListBlock("Traits", card.Traits)
	writeListBlock("Goals", card.Goals)
	writeBlock("Last Location", card.LastLocation)
	writeBlock("Status", card.Status)
	writeBlock("Notes", card.Notes)
	return strings.TrimSpace(b.String()) + "\n"
}

// ParseCardText reconstructs a card from stored free text. The structured
// block grammar is tried first, then the legacy colon grammar. ok is false
// when neither grammar recognizes anything; the zero card is returned rather
// than an error.
func ParseCardText(text string) (card types.CharacterCard, ok bool) {
	if card, ok = parseBlockFormat(text); ok {
		return card, true
	}
	return parseLegacyFormat(text)
}

// parseBlockFormat reads "Title" lines followed by value lines, lists as
// "- item" lines.
func parseBlockFormat(text string) (types.CharacterCard, bool) {
	var card types.CharacterCard
	found := false

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		title, isTitle := matchFieldTitle(lines[i])
		if !isTitle {
			i++
			continue
		}
		var values []string
		j := i + 1
		for j < len(lines) {
			line := strings.TrimSpace(lines[j])
			if line == "" {
				j++
				break
			}
			if _, next := matchFieldTitle(lines[j]); next {
				break
			}
			values = append(values, line)
			j++
		}
		if len(values) > 0 {
			assignField(&card, title, values)
			found = true
		}
		i = j
	}
	return card, found
}

// parseLegacyFormat reads "Field: value" lines; list fields are
// comma-separated.
func parseLegacyFormat(text string) (types.CharacterCard, bool) {
	var card types.CharacterCard
	found := false

	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		title, isTitle := matchFieldTitle(line[:idx])
		if !isTitle {
			continue
		}
		value := strings.TrimSpace(line[idx+1:])
		if value == "" {
			continue
		}
		switch title {
		case "Traits", "Goals":
			assignField(&card, title, splitCommaList(value))
		default:
			assignField(&card, title, []string{value})
		}
		found = true
	}
	return card, found
}

// matchFieldTitle reports whether a line is exactly a known field title.
func matchFieldTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, title := range cardFieldTitles {
		if strings.EqualFold(trimmed, title) {
			return title, true
		}
	}
	return "", false
}

// assignField writes parsed values into the card field named by title.
func assignField(card *types.CharacterCard, title string, values []string) {
	scalar := strings.Join(values, " ")
	switch title {
	case "Name":
		card.Name = scalar
	case "Role":
		card.Role = scalar
	case "Affiliation":
		card.Affiliation = scalar
	case "Traits":
		card.Traits = normalizeList(stripBullets(values))
	case "Goals":
		card.Goals = normalizeList(stripBullets(values))
	case "Last Location":
		card.LastLocation = scalar
	case "Status":
		card.Status = scalar
	case "Notes":
		card.Notes = scalar
	}
}

// stripBullets removes "- " and "* " prefixes from list lines.
func stripBullets(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// splitCommaList splits "a, b, c" into items.
func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
