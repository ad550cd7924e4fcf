package service

import (
	"errors"
	"testing"
)

var testSortable = map[string]string{
	"createdAt": "created_at",
	"amount":    "amount",
}

func TestNormalizePageDefaults(t *testing.T) {
	page, err := NormalizePage(0, 0, "", "", testSortable)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if page.Number != 1 || page.Limit != 10 {
		t.Fatalf("defaults = page %d limit %d, want 1/10", page.Number, page.Limit)
	}
	if page.SortColumn != "created_at" || !page.Descending {
		t.Fatalf("default sort = %s desc=%v, want created_at desc", page.SortColumn, page.Descending)
	}
}

func TestNormalizePageLimitCap(t *testing.T) {
	if _, err := NormalizePage(1, 51, "", "", testSortable); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("limit over cap: expected ErrInvalidInput, got %v", err)
	}
	page, err := NormalizePage(1, 50, "", "", testSortable)
	if err != nil {
		t.Fatalf("limit at cap: %v", err)
	}
	if page.Limit != 50 {
		t.Fatalf("limit = %d, want 50", page.Limit)
	}
}

func TestNormalizePageRejectsUnknownSortField(t *testing.T) {
	if _, err := NormalizePage(1, 10, "freelancerEmail", "asc", testSortable); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unlisted sort field, got %v", err)
	}
}

func TestNormalizePageSortOrder(t *testing.T) {
	page, err := NormalizePage(1, 10, "amount", "asc", testSortable)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if page.Descending {
		t.Fatal("asc requested, got descending")
	}

	if _, err := NormalizePage(1, 10, "amount", "sideways", testSortable); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad order, got %v", err)
	}
}

func TestPageOffset(t *testing.T) {
	page := Page{Number: 3, Limit: 20}
	if page.Offset() != 40 {
		t.Fatalf("offset = %d, want 40", page.Offset())
	}
}
