// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit holds view helpers shared by dashboard pages.
package uikit

import (
	"fmt"
	"net/http"
	"strconv"
)

// windowSize is how many numbered links surround the current page.
const windowSize = 5

// Pagination holds pagination data for dashboard templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	BaseURL     string
	Pages       []PaginationPage
}

// PaginationPage represents a single page link. Ellipsis entries have no URL.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates pagination data for a list at baseURL. The
// current page is clamped to the valid range.
func BuildPagination(currentPage int, totalItems int64, perPage int, baseURL string) Pagination {
	totalPages := CalculateTotalPages(totalItems, perPage)
	p := Pagination{
		CurrentPage: ClampPage(currentPage, totalPages),
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PerPage:     perPage,
		BaseURL:     baseURL,
	}
	p.Pages = buildPages(p.CurrentPage, totalPages, p.PageURL)
	return p
}

// PageURL returns the URL for a specific page number.
func (p Pagination) PageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// HasPrev reports whether there is a newer page.
func (p Pagination) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether there is an older page.
func (p Pagination) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PrevURL returns the URL for the previous page.
func (p Pagination) PrevURL() string { return p.PageURL(p.CurrentPage - 1) }

// NextURL returns the URL for the next page.
func (p Pagination) NextURL() string { return p.PageURL(p.CurrentPage + 1) }

// ShouldShow returns true if pagination should be displayed (more than 1 page).
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// Offset is the number of items before the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

// PageRange describes the items on the current page, e.g. "51-100".
func (p Pagination) PageRange() string {
	if p.TotalItems == 0 {
		return "0"
	}
	start := p.Offset() + 1
	end := min(p.CurrentPage*p.PerPage, int(p.TotalItems))
	return fmt.Sprintf("%d-%d", start, end)
}

// buildPages shows up to windowSize numbers around the current page with
// "..." for gaps, always including the first and last pages.
func buildPages(currentPage, totalPages int, pageURL func(int) string) []PaginationPage {
	var pages []PaginationPage

	start := currentPage - windowSize/2
	end := currentPage + windowSize/2
	if start < 1 {
		start = 1
		end = windowSize
	}
	if end > totalPages {
		end = totalPages
		start = max(end-windowSize+1, 1)
	}

	if start > 1 {
		pages = append(pages, PaginationPage{Number: 1, URL: pageURL(1)})
		if start > 2 {
			pages = append(pages, PaginationPage{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		pages = append(pages, PaginationPage{Number: i, URL: pageURL(i), IsCurrent: i == currentPage})
	}
	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, PaginationPage{IsEllipsis: true})
		}
		pages = append(pages, PaginationPage{Number: totalPages, URL: pageURL(totalPages)})
	}

	return pages
}

// CalculateTotalPages returns the number of pages, at least 1.
func CalculateTotalPages(totalItems int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	return totalPages
}

// ClampPage ensures the page number is within the valid range [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ParsePageParam parses the "page" query parameter from the request.
// Returns 1 if the parameter is missing, empty, or invalid.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
