// internal/client/books.go
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"booknest/internal/cart"
	"booknest/internal/catalog"
	"booknest/internal/notification"
)

func (c *Client) GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	var b *catalog.Book
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("/api/books/%s", id), "", nil, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) SearchBooks(ctx context.Context, query string) ([]*catalog.Book, error) {
	var books []*catalog.Book
	path := "/api/books/search?q=" + url.QueryEscape(query)
	if err := c.send(ctx, http.MethodGet, path, "", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) AddBook(ctx context.Context, in catalog.NewBook) (*catalog.Book, error) {
	var b *catalog.Book
	if err := c.call(ctx, http.MethodPost, "/api/books/", in, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) Cart(ctx context.Context) ([]*cart.Item, error) {
	var items []*cart.Item
	if err := c.call(ctx, http.MethodGet, "/api/cart/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToCart(ctx context.Context, bookID uuid.UUID, typ cart.ItemType) (*cart.Item, error) {
	var item *cart.Item
	body := map[string]any{"book_id": bookID, "type": typ}
	if err := c.call(ctx, http.MethodPost, "/api/cart/", body, &item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) Notifications(ctx context.Context) ([]*notification.Notification, error) {
	var notes []*notification.Notification
	if err := c.call(ctx, http.MethodGet, "/api/notifications/", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}
