// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// BookType is how a listing is offered.
type BookType string

const (
	TypeRent   BookType = "rent"
	TypeBuy    BookType = "buy"
	TypeDonate BookType = "donate"
)

func (t BookType) Valid() bool {
	return t == TypeRent || t == TypeBuy || t == TypeDonate
}

// Status controls whether a book is shown in listings and search.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Book is a catalog entry owned by a user.
type Book struct {
	ID                uuid.UUID `db:"id" json:"id"`
	OwnerID           uuid.UUID `db:"owner_id" json:"owner_id"`
	Title             string    `db:"title" json:"title"`
	Author            string    `db:"author" json:"author"`
	ISBN              string    `db:"isbn" json:"isbn,omitempty"`
	Category          string    `db:"category" json:"category"`
	Condition         string    `db:"condition" json:"condition"`
	Language          string    `db:"language" json:"language,omitempty"`
	Pages             int       `db:"pages" json:"pages,omitempty"`
	PublishedYear     int       `db:"published_year" json:"published_year,omitempty"`
	Description       string    `db:"description" json:"description,omitempty"`
	CoverImageURL     string    `db:"cover_image_url" json:"cover_image_url,omitempty"`
	BookType          BookType  `db:"book_type" json:"book_type"`
	PricePerDay       float64   `db:"price_per_day" json:"price_per_day"`
	PriceBuy          float64   `db:"price_buy" json:"price_buy"`
	StockQuantity     int       `db:"stock_quantity" json:"stock_quantity"`
	AvailableQuantity int       `db:"available_quantity" json:"available_quantity"`
	Status            Status    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// NewBook carries the attributes of a listing being added.
type NewBook struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          string   `json:"isbn"`
	Category      string   `json:"category"`
	Condition     string   `json:"condition"`
	Language      string   `json:"language"`
	Pages         int      `json:"pages"`
	PublishedYear int      `json:"published_year"`
	Description   string   `json:"description"`
	CoverImageURL string   `json:"cover_image_url"`
	BookType      BookType `json:"book_type"`
	PricePerDay   float64  `json:"price_per_day"`
	PriceBuy      float64  `json:"price_buy"`
	StockQuantity int      `json:"stock_quantity"`
}

// BookUpdate is a partial update; nil fields are left alone.
type BookUpdate struct {
	Title         *string   `json:"title"`
	Author        *string   `json:"author"`
	ISBN          *string   `json:"isbn"`
	Category      *string   `json:"category"`
	Condition     *string   `json:"condition"`
	Language      *string   `json:"language"`
	Pages         *int      `json:"pages"`
	PublishedYear *int      `json:"published_year"`
	Description   *string   `json:"description"`
	CoverImageURL *string   `json:"cover_image_url"`
	BookType      *BookType `json:"book_type"`
	PricePerDay   *float64  `json:"price_per_day"`
	PriceBuy      *float64  `json:"price_buy"`
	StockQuantity *int      `json:"stock_quantity"`
	Status        *Status   `json:"status"`
}

func (u BookUpdate) apply(b *Book) {
	set(&b.Title, u.Title)
	set(&b.Author, u.Author)
	set(&b.ISBN, u.ISBN)
	set(&b.Category, u.Category)
	set(&b.Condition, u.Condition)
	set(&b.Language, u.Language)
	set(&b.Pages, u.Pages)
	set(&b.PublishedYear, u.PublishedYear)
	set(&b.Description, u.Description)
	set(&b.CoverImageURL, u.CoverImageURL)
	set(&b.BookType, u.BookType)
	set(&b.PricePerDay, u.PricePerDay)
	set(&b.PriceBuy, u.PriceBuy)
	set(&b.Status, u.Status)
	if u.StockQuantity != nil {
		// Copies already out stay out.
		out := b.StockQuantity - b.AvailableQuantity
		b.StockQuantity = *u.StockQuantity
		b.AvailableQuantity = max(b.StockQuantity-out, 0)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Filter narrows ListBooks. Zero values are ignored. MinPrice and MaxPrice
// compare against price_per_day for rentals and price_buy otherwise.
type Filter struct {
	Category  string
	Condition string
	BookType  BookType
	MinPrice  *float64
	MaxPrice  *float64
	Limit     int
	Offset    int
}

// price is the figure MinPrice and MaxPrice are compared against.
func (b *Book) price() float64 {
	if b.BookType == TypeRent {
		return b.PricePerDay
	}
	return b.PriceBuy
}

func (f Filter) matches(b *Book) bool {
	if b.Status != StatusActive {
		return false
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.Condition != "" && b.Condition != f.Condition {
		return false
	}
	if f.BookType != "" && b.BookType != f.BookType {
		return false
	}
	if f.MinPrice != nil && b.price() < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && b.price() > *f.MaxPrice {
		return false
	}
	return true
}
