package services

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/dossier-backend/internal/types"
)

// normalizeRationale flattens rationale entries (each may carry embedded
// newlines), trims and drops empties, clamps each entry, and caps the entry
// count. Oversized input is clamped, never rejected.
func normalizeRationale(entries []string, maxEntries, maxLen int) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out = append(out, clampString(line, maxLen))
			if maxEntries > 0 && len(out) >= maxEntries {
				return out
			}
		}
	}
	return out
}

// clampCitations trims and length-caps citation fields. Entries without a
// sourceId carry no graph identity and are skipped.
func clampCitations(citations []types.CitationRef, maxQuoteLen, maxLocatorLen int) []types.CitationRef {
	out := make([]types.CitationRef, 0, len(citations))
	for _, c := range citations {
		c.SourceID = strings.TrimSpace(c.SourceID)
		if c.SourceID == "" {
			continue
		}
		c.Quote = clampString(strings.TrimSpace(c.Quote), maxQuoteLen)
		c.Locator = clampString(strings.TrimSpace(c.Locator), maxLocatorLen)
		out = append(out, c)
	}
	return out
}

// clampString cuts s to max runes. Rune-based so multibyte text is never
// split mid-character.
func clampString(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func encodeJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

func decodeRationale(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeCitations(raw datatypes.JSON) []types.CitationRef {
	if len(raw) == 0 {
		return nil
	}
	var out []types.CitationRef
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
