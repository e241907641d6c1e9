// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/platform/telemetry"
	"booknest/internal/result"
	"booknest/internal/storage"
)

// service implements the Service interface.
type service struct {
	repo    Repository
	objects storage.Store
	log     *zap.SugaredLogger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService creates a new catalog service instance.
func NewService(repo Repository, objects storage.Store, log *zap.SugaredLogger) Service {
	return &service{
		repo:    repo,
		objects: objects,
		log:     log,
		tracer:  otel.Tracer("booknest/catalog"),
		now:     time.Now,
	}
}

// AddBook lists a new book. available_quantity starts at stock_quantity, or
// one when no stock was given.
func (s *service) AddBook(ctx context.Context, ownerID uuid.UUID, in NewBook) (b *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book")
	defer func() { telemetry.End(ctx, span, "catalog.add_book", err) }()

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return nil, result.InvalidInput("Title and author are required")
	}
	if !in.BookType.Valid() {
		return nil, result.InvalidInput("Invalid book type")
	}
	if in.PricePerDay < 0 || in.PriceBuy < 0 || in.StockQuantity < 0 {
		return nil, result.InvalidInput("Prices and stock must not be negative")
	}

	stock := in.StockQuantity
	if stock == 0 {
		stock = 1
	}
	now := s.now().UTC()
	b = &Book{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Title:             in.Title,
		Author:            in.Author,
		ISBN:              in.ISBN,
		Category:          in.Category,
		Condition:         in.Condition,
		Language:          in.Language,
		Pages:             in.Pages,
		PublishedYear:     in.PublishedYear,
		Description:       in.Description,
		CoverImageURL:     in.CoverImageURL,
		BookType:          in.BookType,
		PricePerDay:       in.PricePerDay,
		PriceBuy:          in.PriceBuy,
		StockQuantity:     stock,
		AvailableQuantity: stock,
		Status:            StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, result.Failed(err)
	}

	s.log.Infow("Book added", "book_id", b.ID, "owner_id", ownerID, "type", b.BookType)
	return b, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (b *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_book")
	defer func() { telemetry.End(ctx, span, "catalog.get_book", err) }()

	return s.load(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Book, error) {
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Book not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	return b, nil
}

func (s *service) ListBooks(ctx context.Context, f Filter) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list_books")
	defer func() { telemetry.End(ctx, span, "catalog.list_books", err) }()

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, result.InvalidInput("min price exceeds max price")
	}
	books, err = s.repo.List(ctx, f)
	return books, result.Failed(err)
}

func (s *service) ListOwnerBooks(ctx context.Context, ownerID uuid.UUID) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list_owner_books")
	defer func() { telemetry.End(ctx, span, "catalog.list_owner_books", err) }()

	books, err = s.repo.ListByOwner(ctx, ownerID)
	return books, result.Failed(err)
}

// UpdateBook applies a partial update. Only the owner may change a listing.
func (s *service) UpdateBook(ctx context.Context, id, userID uuid.UUID, update BookUpdate) (b *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.update_book")
	defer func() { telemetry.End(ctx, span, "catalog.update_book", err) }()

	if update.BookType != nil && !update.BookType.Valid() {
		return nil, result.InvalidInput("Invalid book type")
	}
	if update.Status != nil && *update.Status != StatusActive && *update.Status != StatusInactive {
		return nil, result.InvalidInput("Invalid status")
	}
	if update.StockQuantity != nil && *update.StockQuantity < 0 {
		return nil, result.InvalidInput("Stock must not be negative")
	}

	b, err = s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	update.apply(b)
	b.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, result.Failed(err)
	}
	return b, nil
}

func (s *service) DeleteBook(ctx context.Context, id, userID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.delete_book")
	defer func() { telemetry.End(ctx, span, "catalog.delete_book", err) }()

	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return result.Failed(err)
	}
	s.log.Infow("Book deleted", "book_id", id, "owner_id", userID)
	return nil
}

func (s *service) owned(ctx context.Context, id, userID uuid.UUID) (*Book, error) {
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	if b.OwnerID != userID {
		return nil, result.Unauthorized("Unauthorized")
	}
	return b, nil
}

// Search matches q case-insensitively against title, author and category of
// active books.
func (s *service) Search(ctx context.Context, q string) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.search")
	defer func() { telemetry.End(ctx, span, "catalog.search", err) }()
	span.SetAttributes(attribute.String("query", q))

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, result.InvalidInput("Query required")
	}
	books, err = s.repo.Search(ctx, q)
	return books, result.Failed(err)
}

// AdjustQuantity changes available_quantity by delta, refusing to go below
// zero.
func (s *service) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.adjust_quantity")
	defer func() { telemetry.End(ctx, span, "catalog.adjust_quantity", err) }()
	span.SetAttributes(attribute.String("book_id", id.String()), attribute.Int("delta", delta))

	n, err = s.repo.AdjustQuantity(ctx, id, delta)
	switch {
	case errors.Is(err, ErrNotFound):
		return 0, result.NotFound("Book not found")
	case errors.Is(err, ErrInsufficientQuantity):
		return n, result.InsufficientStock("Insufficient stock")
	case err != nil:
		return 0, result.Failed(err)
	}
	return n, nil
}

// MarkForDonation switches a listing to donate and makes sure it is listed.
func (s *service) MarkForDonation(ctx context.Context, id uuid.UUID) (b *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.mark_for_donation")
	defer func() { telemetry.End(ctx, span, "catalog.mark_for_donation", err) }()

	b, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	b.BookType = TypeDonate
	b.Status = StatusActive
	b.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, result.Failed(err)
	}
	return b, nil
}

// UploadCover stores a cover image under {userID}/{uuid}-{filename} in the
// covers bucket and returns its public URL.
func (s *service) UploadCover(ctx context.Context, userID uuid.UUID, filename string, body io.Reader) (url string, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.upload_cover")
	defer func() { telemetry.End(ctx, span, "catalog.upload_cover", err) }()

	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "", result.InvalidInput("File name required")
	}

	objectPath := fmt.Sprintf("%s/%s-%s", userID, uuid.New(), name)
	stored, err := s.objects.Upload(ctx, storage.CoversBucket, objectPath, body)
	if err != nil {
		s.log.Errorw("Cover upload failed", "user_id", userID, "error", err)
		return "", result.Failed(err)
	}
	return s.objects.PublicURL(storage.CoversBucket, stored), nil
}
