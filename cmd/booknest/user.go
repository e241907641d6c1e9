// cmd/booknest/user.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"booknest/internal/auth"
	"booknest/internal/client"
	"booknest/internal/platform/logger"
	"booknest/internal/profile"
)

var (
	serverURL string
	email     string
	fullName  string
	userType  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts on a running server",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if email == "" {
			return fmt.Errorf("email is required (--email)")
		}
		if fullName == "" {
			return fmt.Errorf("name is required (--name)")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		c := client.New(serverURL, nil, logger.Nop())
		sess, err := c.SignUp(cmd.Context(), auth.SignUpInput{
			Email:    email,
			Password: password,
			FullName: fullName,
			UserType: profile.UserType(userType),
		})
		if err != nil {
			return fmt.Errorf("sign up failed: %w", err)
		}
		fmt.Printf("Created user %s (%s)\n", sess.UserID, sess.Email)
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func init() {
	userCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the booknest server")
	userCreateCmd.Flags().StringVar(&email, "email", "", "account email")
	userCreateCmd.Flags().StringVar(&fullName, "name", "", "full name")
	userCreateCmd.Flags().StringVar(&userType, "type", string(profile.Reader), "reader, donor or both")
	userCmd.AddCommand(userCreateCmd)
}
