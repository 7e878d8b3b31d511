/**
 * @description
 * Transport-envelope handling for the core-banking API. Every response may be
 * wrapped as {"data": ...}, and every collection may arrive either as a bare
 * array or as a paged-result object. These helpers collapse both shapes into
 * one canonical form before record-level normalization runs.
 */

package corebank

// unwrap strips a single level of {"data": ...} envelope. Anything else is
// returned unchanged, which makes the operation idempotent on payloads that
// are already unwrapped.
func unwrap(payload any) any {
	if rec, ok := payload.(map[string]any); ok {
		if inner, present := rec["data"]; present {
			return inner
		}
	}
	return payload
}

// pagedPayload is the canonical page shape before record normalization.
type pagedPayload struct {
	Content       []any
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
	First         bool
	Last          bool
}

// toPage canonicalizes a collection response. A bare array becomes a single
// full page. A paged object is read field-by-field with defaults for anything
// absent or malformed; First and Last are always derived from the index and
// page count; upstream-supplied flags are never trusted.
func toPage(payload any) pagedPayload {
	raw := unwrap(payload)

	if items, ok := raw.([]any); ok {
		return pagedPayload{
			Content:       items,
			Page:          0,
			Size:          len(items),
			TotalElements: len(items),
			TotalPages:    1,
			First:         true,
			Last:          true,
		}
	}

	rec := asRecord(raw)
	content, _ := rec["content"].([]any)
	if content == nil {
		content = []any{}
	}
	page := asInt(rec["page"], asInt(rec["number"], 0))
	size := asInt(rec["size"], len(content))
	totalElements := asInt(rec["totalElements"], asInt(rec["total"], len(content)))
	totalPages := asInt(rec["totalPages"], 1)

	return pagedPayload{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page+1 >= totalPages,
	}
}

// collectionItems flattens a collection response that may be a bare array, an
// enveloped array, or a paged object, returning just the records.
func collectionItems(payload any) []any {
	raw := unwrap(payload)
	if items, ok := raw.([]any); ok {
		return items
	}
	if content, ok := asRecord(raw)["content"].([]any); ok {
		return content
	}
	return []any{}
}
