package catalog

import "pharmacy/internal/models"

// MaxRecent bounds the recently viewed list.
const MaxRecent = 10

// ResolveRecent looks up ids, most recent first, in products. Unknown ids are
// skipped, repeated ids are kept once, and at most MaxRecent products are
// returned.
func ResolveRecent(ids []string, products []models.Product) []models.Product {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	out := make([]models.Product, 0, min(len(ids), MaxRecent))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if len(out) == MaxRecent {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i, ok := byID[id]; ok {
			out = append(out, products[i])
		}
	}
	return out
}

// PushRecent moves id to the front of ids, dropping any earlier occurrence
// and trimming the list to MaxRecent. ids is not modified.
func PushRecent(ids []string, id string) []string {
	if id == "" {
		return append([]string(nil), ids...)
	}
	out := make([]string, 0, MaxRecent)
	out = append(out, id)
	for _, existing := range ids {
		if len(out) == MaxRecent {
			break
		}
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
