/**
 * @description
 * The pure stages of the federated-feed pipeline: deduplicate, sort, filter,
 * and re-paginate. Each stage operates on an in-memory sequence and has no
 * I/O, so the aggregation in service.go stays a thin composition of
 * independently tested functions.
 */

package app

import (
	"sort"
	"strings"
	"time"

	"github.com/lorettabank/feed-service/internal/domain"
)

// dedupeByID collapses transactions sharing an id into one entry. A
// transaction appearing in two per-account fetches (both legs of a transfer)
// counts once; last seen wins, which is safe because records are value-equal
// by id. First-appearance order is preserved for the survivors.
func dedupeByID(rows []domain.Transaction) []domain.Transaction {
	index := make(map[string]int, len(rows))
	deduped := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		if at, seen := index[row.ID]; seen {
			deduped[at] = row
			continue
		}
		index[row.ID] = len(deduped)
		deduped = append(deduped, row)
	}
	return deduped
}

// sortByCreatedAtDesc orders rows most recent first, the canonical order of
// the federated feed. The sort is stable so equal timestamps keep their
// merge order.
func sortByCreatedAtDesc(rows []domain.Transaction) []domain.Transaction {
	sorted := append([]domain.Transaction(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// dateBounds converts the calendar-date filter strings into inclusive
// instants: the start date lower-bounds at 00:00:00.000 local and the end
// date upper-bounds at 23:59:59.999 local. An absent or unparsable date
// yields no bound on that side.
func dateBounds(filters domain.TransactionFilters) (start, end *time.Time) {
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(filters.StartDate), time.Local); err == nil && filters.StartDate != "" {
		start = &d
	}
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(filters.EndDate), time.Local); err == nil && filters.EndDate != "" {
		endOfDay := d.Add(24*time.Hour - time.Millisecond)
		end = &endOfDay
	}
	return start, end
}

// matchesFilters is the local filter predicate, applied identically to the
// single-account and federated cases. A row whose timestamp never parsed
// cannot violate a date bound; bounds only reject when the comparison is
// determinate.
func matchesFilters(tx domain.Transaction, typeFilter string, start, end *time.Time) bool {
	if typeFilter != "" && !strings.EqualFold(tx.Type, typeFilter) {
		return false
	}
	if tx.CreatedAtKnown {
		if start != nil && tx.CreatedAt.Before(*start) {
			return false
		}
		if end != nil && tx.CreatedAt.After(*end) {
			return false
		}
	}
	return true
}

// filterTransactions applies the local filter predicate to a sequence.
func filterTransactions(rows []domain.Transaction, filters domain.TransactionFilters) []domain.Transaction {
	typeFilter := strings.TrimSpace(filters.Type)
	start, end := dateBounds(filters)
	if typeFilter == "" && start == nil && end == nil {
		return rows
	}
	kept := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		if matchesFilters(row, typeFilter, start, end) {
			kept = append(kept, row)
		}
	}
	return kept
}

// paginate slices one page out of a sequence. Size is clamped to at least 1
// and page to at least 0; TotalPages is never below 1 so an empty sequence
// still yields a well-formed first-and-last page.
func paginate[T any](items []T, page, size int) domain.Page[T] {
	if size < 1 {
		size = 1
	}
	if page < 0 {
		page = 0
	}

	totalElements := len(items)
	totalPages := (totalElements + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	// page*size can overflow for huge page indices; any page at or past the
	// end serves an empty window.
	startIdx := totalElements
	endIdx := totalElements
	if page < totalPages {
		startIdx = page * size
		endIdx = startIdx + size
		if endIdx > totalElements {
			endIdx = totalElements
		}
	}

	content := make([]T, endIdx-startIdx)
	copy(content, items[startIdx:endIdx])

	return domain.Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}
