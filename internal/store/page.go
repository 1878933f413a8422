package store

// Sort mirrors the backend's sort descriptor.
type Sort struct {
	Empty    bool `json:"empty"`
	Sorted   bool `json:"sorted"`
	Unsorted bool `json:"unsorted"`
}

type Pageable struct {
	PageNumber int  `json:"pageNumber"`
	PageSize   int  `json:"pageSize"`
	Sort       Sort `json:"sort"`
	Offset     int  `json:"offset"`
	Paged      bool `json:"paged"`
	Unpaged    bool `json:"unpaged"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Content          []T      `json:"content"`
	Pageable         Pageable `json:"pageable"`
	TotalElements    int      `json:"totalElements"`
	TotalPages       int      `json:"totalPages"`
	First            bool     `json:"first"`
	Last             bool     `json:"last"`
	Size             int      `json:"size"`
	Number           int      `json:"number"`
	NumberOfElements int      `json:"numberOfElements"`
	Sort             Sort     `json:"sort"`
	Empty            bool     `json:"empty"`
}

// PageRequest holds the optional list query parameters. Zero values are omitted
// from the query string.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

// SinglePage wraps items in an envelope that reports exactly one page holding
// every item.
func SinglePage[T any](items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	unsorted := Sort{Empty: true, Sorted: false, Unsorted: true}
	return Page[T]{
		Content: items,
		Pageable: Pageable{
			PageNumber: 0,
			PageSize:   n,
			Sort:       unsorted,
			Offset:     0,
			Paged:      true,
			Unpaged:    false,
		},
		TotalElements:    n,
		TotalPages:       1,
		First:            true,
		Last:             true,
		Size:             n,
		Number:           0,
		NumberOfElements: n,
		Sort:             unsorted,
		Empty:            n == 0,
	}
}
