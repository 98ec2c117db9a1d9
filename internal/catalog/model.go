package catalog

import "time"

// Product is a sellable listing owned by a vendor.
type Product struct {
	ID          string `json:"id"`
	VendorID    string `json:"vendor_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price     string     `json:"price"`
	Stock     int        `json:"stock"`
	Rating    float64    `json:"rating"`
	ImageURL  string     `json:"image_url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil = not time-limited
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// category filter applied
	Category string `json:"category,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// items found
	Items []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	VendorID    string     `json:"vendor_id"   example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Name        string     `json:"name"        example:"Mechanical Keyboard"`
	Description string     `json:"description" example:"RGB 60%"`
	Category    string     `json:"category"    example:"electronics"`
	Price       string     `json:"price"       example:"199.90"`
	Stock       int        `json:"stock"       example:"10"`
	ImageURL    string     `json:"image_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UpdateProductRequest payload of partial update.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       string   `json:"price"`
	Stock       *int     `json:"stock"`
	Rating      *float64 `json:"rating"`
	ImageURL    string   `json:"image_url"`
}
