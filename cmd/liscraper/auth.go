package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage linked account credentials",
	Long: `Manage the account credentials used for authenticated scraping.

Credentials are encrypted at rest with AES-GCM. The master key comes from,
in order of preference: the configured environment variable, the system
keychain, or a passphrase file.

Never share your config files or storage directory!`,
}

// linkCmd represents the auth link command
var linkCmd = &cobra.Command{
	Use:   "link <userID>",
	Short: "Store credentials for a user",
	Long: `Store account credentials for a user, encrypted at rest.

You will be prompted for the account email and password. The password is
never echoed and never written anywhere in plaintext.`,
	Example: `  liscraper auth link user-42`,
	Args:    cobra.ExactArgs(1),
	Run:     runLink,
}

// revokeCmd represents the auth revoke command
var revokeCmd = &cobra.Command{
	Use:   "revoke <userID>",
	Short: "Deactivate a user's stored credentials",
	Long: `Deactivate the stored credentials for a user.

The record is flipped inactive rather than deleted, so the audit trail
keyed by its identity hash stays intact.`,
	Args: cobra.ExactArgs(1),
	Run:  runRevoke,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked accounts",
	Long:  `List linked accounts with sanitized identity information.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(linkCmd)
	authCmd.AddCommand(revokeCmd)
	authCmd.AddCommand(authListCmd)
}

func runLink(cmd *cobra.Command, args []string) {
	userID := args[0]

	a, err := newApp()
	if err != nil {
		fatal("failed to initialize", err)
	}
	defer a.close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Account email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		fatal("failed to read email", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		fatal("email is required", nil)
	}

	fmt.Print("Account password (hidden): ")
	password, err := readPassword()
	if err != nil {
		fatal("failed to read password", err)
	}
	if password == "" {
		fatal("password is required", nil)
	}

	cred, err := a.vault.Store(userID, email, password)
	if err != nil {
		fatal("failed to store credentials", err)
	}

	fmt.Printf("Linked account for %s (identity %s...)\n", userID, cred.EmailHash[:12])
}

func runRevoke(cmd *cobra.Command, args []string) {
	userID := args[0]

	a, err := newApp()
	if err != nil {
		fatal("failed to initialize", err)
	}
	defer a.close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Revoke credentials for '%s'? (y/N): ", userID)
	input, _ := reader.ReadString('\n')
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
		return
	}

	if err := a.vault.Revoke(userID); err != nil {
		fatal("failed to revoke credentials", err)
	}
	fmt.Printf("Credentials for %s revoked\n", userID)
}

func runAuthList(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		fatal("failed to initialize", err)
	}
	defer a.close()

	creds, err := a.vault.List()
	if err != nil {
		fatal("failed to list accounts", err)
	}
	if len(creds) == 0 {
		fmt.Println("No linked accounts. Use 'liscraper auth link <userID>' to add one.")
		return
	}

	fmt.Println("Linked accounts:")
	for i, c := range creds {
		status := "active"
		if !c.IsActive {
			status = "revoked"
		}
		fmt.Printf("%d. User: %s\n", i+1, c.UserID)
		fmt.Printf("   Identity: %s...\n", c.EmailHash[:12])
		fmt.Printf("   Status: %s\n", status)
		if c.LastValidatedAt != nil {
			fmt.Printf("   Last Validated: %s\n", c.LastValidatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
