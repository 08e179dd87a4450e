package history

import "github.com/ziadkadry99/runbookqa/internal/assistant"

// Enrich appends persisted turns to a short client history. It does nothing
// when the client already sent at least below turns. Persisted turns whose
// content is already present are skipped, and at most limit persisted
// turns are considered.
func Enrich(client, persisted []assistant.Turn, below, limit int) []assistant.Turn {
	out := make([]assistant.Turn, len(client), len(client)+len(persisted))
	copy(out, client)
	if len(client) >= below || len(persisted) == 0 {
		return out
	}
	if limit > 0 && len(persisted) > limit {
		persisted = persisted[:limit]
	}

	seen := make(map[string]bool, len(client))
	for _, t := range client {
		seen[t.Content] = true
	}
	for _, t := range persisted {
		if seen[t.Content] {
			continue
		}
		out = append(out, t)
	}
	return out
}
