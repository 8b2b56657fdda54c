package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"liarchive/pkg/auth"
	"liarchive/pkg/logger"
)

var (
	// Auth command flags
	authClientID     string
	authClientSecret string
	authManualToken  bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn API access",
	Long: `Manage the LinkedIn access token.

The token is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

The LIARCHIVE_ACCESS_TOKEN environment variable overrides any stored token.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain and store an access token",
	Long: `Obtain a LinkedIn access token and store it securely.

By default this runs the OAuth authorization flow: a URL is printed, you
grant access in the browser, and the callback on localhost completes the
exchange. You need a LinkedIn developer application; pass its credentials
via --client-id/--client-secret or the LIARCHIVE_CLIENT_ID and
LIARCHIVE_CLIENT_SECRET environment variables.

With --manual you paste an existing access token instead.`,
	Example: `  # OAuth flow with app credentials from the environment
  liarchive auth login

  # OAuth flow with explicit app credentials
  liarchive auth login --client-id abc123 --client-secret shhh

  # Paste a token obtained elsewhere
  liarchive auth login --manual`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token",
	Long:  `Show whether an access token is stored, masked, with its expiry.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVar(&authClientID, "client-id", "", "LinkedIn application client ID")
	loginCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "LinkedIn application client secret")
	loginCmd.Flags().BoolVar(&authManualToken, "manual", false, "paste an access token instead of running the OAuth flow")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}
	log := logger.GetLogger()

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	var token *auth.Token
	if authManualToken {
		token, err = promptForToken()
	} else {
		token, err = oauthLogin(log)
	}
	if err != nil {
		return err
	}

	if err := manager.Store(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Printf("Token stored (%s).\n", auth.MaskToken(token.AccessToken))
	if !token.ExpiresAt.IsZero() {
		fmt.Printf("Expires %s.\n", token.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func oauthLogin(log logger.Logger) (*auth.Token, error) {
	clientID := authClientID
	if clientID == "" {
		clientID = os.Getenv("LIARCHIVE_CLIENT_ID")
	}
	clientSecret := authClientSecret
	if clientSecret == "" {
		clientSecret = os.Getenv("LIARCHIVE_CLIENT_SECRET")
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID required: pass --client-id or set LIARCHIVE_CLIENT_ID")
	}
	if clientSecret == "" {
		fmt.Print("Client secret: ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read client secret: %w", err)
		}
		clientSecret = strings.TrimSpace(string(secret))
	}

	authenticator := auth.NewAuthenticator(clientID, clientSecret, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return authenticator.Login(ctx)
}

func promptForToken() (*auth.Token, error) {
	fmt.Print("Access token: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return nil, fmt.Errorf("no token entered")
	}
	return &auth.Token{AccessToken: value, ObtainedAt: time.Now()}, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	token, err := manager.Retrieve()
	if err != nil {
		fmt.Println("No token stored. Run 'liarchive auth login'.")
		return nil
	}

	fmt.Printf("Token: %s\n", auth.MaskToken(token.AccessToken))
	if !token.ObtainedAt.IsZero() {
		fmt.Printf("Obtained: %s\n", token.ObtainedAt.Format("2006-01-02 15:04"))
	}
	switch {
	case token.ExpiresAt.IsZero():
		fmt.Println("Expiry: unknown")
	case token.IsExpired():
		fmt.Printf("Expiry: EXPIRED at %s\n", token.ExpiresAt.Format("2006-01-02 15:04"))
	default:
		fmt.Printf("Expiry: %s\n", token.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	if err := manager.Delete(); err != nil {
		fmt.Println("No token stored.")
		return nil
	}
	fmt.Println("Token removed.")
	return nil
}
