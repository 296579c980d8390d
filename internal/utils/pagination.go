package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxPageButtons is the number of page-number buttons shown by a pager.
const MaxPageButtons = 5

// ParsePageParam reads a positive page number from the query, or returns
// zero when the parameter is absent, not a number or below one.
func ParsePageParam(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return 0
	}
	return v
}

// CalculateOffset calculates the zero-based index of the first item on a page
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// CalculateTotalPages calculates the total number of pages based on total items and limit
func CalculateTotalPages(totalItems, limit int) int {
	if limit < 1 {
		return 1
	}
	totalPages := (totalItems + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	return totalPages
}

// ClampPage pins a requested page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page
}

// PageWindow returns the page numbers a pager shows around the current
// page: all of them when there are few, the first ones near the start,
// the last ones near the end, and a centred run otherwise.
func PageWindow(current, totalPages int) []int {
	n := totalPages
	if n > MaxPageButtons {
		n = MaxPageButtons
	}

	pages := make([]int, 0, n)
	for i := 0; i < n; i++ {
		var p int
		switch {
		case totalPages <= MaxPageButtons:
			p = i + 1
		case current <= 3:
			p = i + 1
		case current >= totalPages-2:
			p = totalPages - MaxPageButtons + 1 + i
		default:
			p = current - 2 + i
		}
		if p <= totalPages {
			pages = append(pages, p)
		}
	}
	return pages
}

// PaginationMetadata represents the standardized pagination metadata
type PaginationMetadata struct {
	TotalItems   int `json:"totalItems"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPaginationMetadata creates a new pagination metadata object
func NewPaginationMetadata(totalItems, page, limit int) PaginationMetadata {
	totalPages := CalculateTotalPages(totalItems, limit)
	return PaginationMetadata{
		TotalItems:   totalItems,
		CurrentPage:  ClampPage(page, totalPages),
		TotalPages:   totalPages,
		ItemsPerPage: limit,
	}
}

// SendErrorResponse sends a standardized error response
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
