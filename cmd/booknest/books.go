// cmd/booknest/books.go
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"booknest/internal/client"
	"booknest/internal/platform/logger"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse the catalog of a running server",
}

var booksSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search active listings by title, author or category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL, nil, logger.Nop())
		books, err := c.SearchBooks(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(books) == 0 {
			fmt.Println("No books found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tTYPE\tAVAILABLE")
		for _, b := range books {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", b.ID, b.Title, b.Author, b.BookType, b.AvailableQuantity)
		}
		return w.Flush()
	},
}

func init() {
	booksCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the booknest server")
	booksCmd.AddCommand(booksSearchCmd)
}
