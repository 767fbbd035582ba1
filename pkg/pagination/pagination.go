package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultSize = 50
	MaxSize     = 100
)

// Params holds page-number pagination inputs.
type Params struct {
	Page int
	Size int
}

// Page wraps one slice of an ordered sequence.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// Normalize clamps page to >= 1 and size to 1..MaxSize.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// FromQuery reads page and size query params with sane defaults.
func FromQuery(c *fiber.Ctx) Params {
	return Params{
		Page: parseInt(c.Query("page"), 1),
		Size: parseInt(c.Query("size"), DefaultSize),
	}.Normalize()
}

// Paginate slices an already materialized ordered sequence.
func Paginate[T any](items []T, params Params) Page[T] {
	params = params.Normalize()
	total := len(items)

	// Compare before multiplying so a huge page number cannot overflow.
	start := total
	if params.Page-1 < (total+params.Size-1)/params.Size {
		start = (params.Page - 1) * params.Size
	}
	end := start + params.Size
	if end > total {
		end = total
	}

	pages := (total + params.Size - 1) / params.Size

	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items: window,
		Total: total,
		Page:  params.Page,
		Size:  params.Size,
		Pages: pages,
	}
}

// Map converts the items of a page while keeping its descriptor.
func Map[T, U any](page Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(page.Items))
	for i, item := range page.Items {
		out[i] = fn(item)
	}
	return Page[U]{Items: out, Total: page.Total, Page: page.Page, Size: page.Size, Pages: page.Pages}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
