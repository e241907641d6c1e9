// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

var bookColumns = []any{
	"id", "owner_id", "title", "author", "isbn", "category", "condition", "language",
	"pages", "published_year", "description", "cover_image_url", "book_type",
	"price_per_day", "price_buy", "stock_quantity", "available_quantity", "status",
	"created_at", "updated_at",
}

// listedPrice is the price a filter compares against.
var listedPrice = goqu.L(`CASE WHEN book_type = 'rent' THEN price_per_day ELSE price_buy END`)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *Book) error {
	query := `
		INSERT INTO books (id, owner_id, title, author, isbn, category, condition, language, pages,
			published_year, description, cover_image_url, book_type, price_per_day, price_buy,
			stock_quantity, available_quantity, status, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :author, :isbn, :category, :condition, :language, :pages,
			:published_year, :description, :cover_image_url, :book_type, :price_per_day, :price_buy,
			:stock_quantity, :available_quantity, :status, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	query, args, err := dialect.From("books").Select(bookColumns...).
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	b := &Book{}
	if err := r.db.GetContext(ctx, b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Book, error) {
	ds := dialect.From("books").Select(bookColumns...).
		Where(goqu.C("status").Eq(string(StatusActive))).
		Order(goqu.C("created_at").Desc())

	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.Condition != "" {
		ds = ds.Where(goqu.C("condition").Eq(f.Condition))
	}
	if f.BookType != "" {
		ds = ds.Where(goqu.C("book_type").Eq(string(f.BookType)))
	}
	if f.MinPrice != nil {
		ds = ds.Where(listedPrice.Gte(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		ds = ds.Where(listedPrice.Lte(*f.MaxPrice))
	}
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return r.selectBooks(ctx, ds)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Book, error) {
	ds := dialect.From("books").Select(bookColumns...).
		Where(goqu.C("owner_id").Eq(ownerID.String())).
		Order(goqu.C("created_at").Desc())
	return r.selectBooks(ctx, ds)
}

func (r *PostgresRepository) Search(ctx context.Context, q string) ([]*Book, error) {
	pattern := "%" + q + "%"
	ds := dialect.From("books").Select(bookColumns...).
		Where(
			goqu.C("status").Eq(string(StatusActive)),
			goqu.Or(
				goqu.C("title").ILike(pattern),
				goqu.C("author").ILike(pattern),
				goqu.C("category").ILike(pattern),
			),
		).
		Order(goqu.C("created_at").Desc())
	return r.selectBooks(ctx, ds)
}

func (r *PostgresRepository) selectBooks(ctx context.Context, ds *goqu.SelectDataset) ([]*Book, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	books := []*Book{}
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (r *PostgresRepository) Save(ctx context.Context, b *Book) error {
	query := `
		UPDATE books
		SET title = :title, author = :author, isbn = :isbn, category = :category,
		    condition = :condition, language = :language, pages = :pages,
		    published_year = :published_year, description = :description,
		    cover_image_url = :cover_image_url, book_type = :book_type,
		    price_per_day = :price_per_day, price_buy = :price_buy,
		    stock_quantity = :stock_quantity, available_quantity = :available_quantity,
		    status = :status, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, b)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity goes through the increment/decrement stored procedures. Both
// return NULL when no row was updated, which for a decrement means either a
// missing book or too few copies.
func (r *PostgresRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `SELECT increment_book_quantity($1, $2)`
	amount := delta
	if delta < 0 {
		query = `SELECT decrement_book_quantity($1, $2)`
		amount = -delta
	}

	var n sql.NullInt64
	if err := r.db.GetContext(ctx, &n, query, id, amount); err != nil {
		return 0, fmt.Errorf("failed to adjust quantity: %w", err)
	}
	if n.Valid {
		return int(n.Int64), nil
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return b.AvailableQuantity, ErrInsufficientQuantity
}
