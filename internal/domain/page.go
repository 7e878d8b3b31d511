package domain

// Page is one page of an ordered collection. The flags are always derived
// from the index and page count, never taken from the upstream:
// First == (Page == 0) and Last == (Page+1 >= TotalPages).
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

// EmptyPage returns a well-formed empty page for the requested index and size.
func EmptyPage[T any](page, size int) Page[T] {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}
	return Page[T]{
		Content:       []T{},
		Page:          page,
		Size:          size,
		TotalElements: 0,
		TotalPages:    1,
		First:         page == 0,
		Last:          true,
	}
}
