package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/crucial707/coursevault/cmd/cli/config"
)

// InitAuth registers auth-related CLI commands on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), registerCmd(), logoutCmd(), rosterCmd())
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the CourseVault API",
		Long:  "Authenticate and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			var loginResp struct {
				Token string `json:"token"`
			}
			err := PostJSON("/auth/login", map[string]string{
				"username": username,
				"password": password,
			}, &loginResp)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if loginResp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}

			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Println("Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Long:  "Register with a roster-listed email, then log in separately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("username, email, and password are required")
			}

			err := PostJSON("/auth/register", map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			}, nil)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Println("Registered. Run `coursevault login` next.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username to register")
	cmd.Flags().StringVar(&email, "email", "", "roster email address")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

// ==========================
// Roster Lookup
// ==========================
func rosterCmd() *cobra.Command {
	var suffix string

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Look up a roll-number suffix on the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := PostJSON("/roster/lookup", map[string]string{"suffix": suffix}, &out); err != nil {
				return err
			}
			fmt.Printf("Name:  %s\nEmail: %s\n", out.Name, out.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&suffix, "suffix", "", "3-digit roll number suffix")

	return cmd
}

// PostJSON posts payload to an unauthenticated endpoint and decodes the
// response into out when non-nil.
func PostJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return err
		}
	}

	return nil
}
