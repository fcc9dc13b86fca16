package validation

import "testing"

func TestCreateCheckoutRequest_Valid(t *testing.T) {
	v := New()

	req := CreateCheckoutRequest{
		Items: []CartItemRequest{
			{ID: "p1", Name: "Guide", Price: 29.99, FileURL: "https://files.example.com/guide.pdf"},
			{ID: "p2", Name: "Workbook", Price: 9.5, FileURL: "https://files.example.com/workbook.pdf"},
		},
	}

	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCreateCheckoutRequest_EmptyCart(t *testing.T) {
	v := New()

	req := CreateCheckoutRequest{Items: []CartItemRequest{}}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for empty cart, got nil")
	}
}

func TestCreateCheckoutRequest_DuplicateProduct(t *testing.T) {
	v := New()

	req := CreateCheckoutRequest{
		Items: []CartItemRequest{
			{ID: "p1", Name: "Guide", Price: 29.99, FileURL: "https://files.example.com/guide.pdf"},
			{ID: "p1", Name: "Guide again", Price: 29.99, FileURL: "https://files.example.com/guide.pdf"},
		},
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for duplicate product ids, got nil")
	}
}

func TestCreateCheckoutRequest_BadItem(t *testing.T) {
	v := New()

	req := CreateCheckoutRequest{
		Items: []CartItemRequest{
			{ID: "p1", Name: "", Price: -1, FileURL: "not-a-url"},
		},
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors for bad item fields, got nil")
	}
}

func TestCreateProductRequest(t *testing.T) {
	v := New()

	ok := CreateProductRequest{Name: "Guide", Price: 29.99, FileURL: "https://files.example.com/guide.pdf"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	missingFile := CreateProductRequest{Name: "Guide", Price: 29.99}
	if err := v.Struct(missingFile); err == nil {
		t.Fatal("expected validation error for missing file_url, got nil")
	}
}
