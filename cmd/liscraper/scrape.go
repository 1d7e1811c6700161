package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/scraper"
)

var scrapeTimeout time.Duration

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <userID> <profileURL>",
	Short: "Scrape one profile page",
	Long: `Scrape a single profile page using the credentials linked to userID.

The scrape reuses a cached session when one exists; otherwise it logs in
with human-paced interactions. When the login is challenged with an email
verification code, the command prompts for the code right here: the paused
login lives in this process and cannot be resumed by a later invocation.`,
	Example: `  liscraper scrape user-42 https://www.linkedin.com/in/someone/`,
	Args:    cobra.ExactArgs(2),
	Run:     runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 0, "navigation timeout override (e.g. 45s)")
}

func runScrape(cmd *cobra.Command, args []string) {
	userID, profileURL := args[0], args[1]

	a, err := newApp()
	if err != nil {
		fatal("failed to initialize", err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile, err := a.orch.ScrapeProfile(ctx, scraper.ScrapeRequest{
		UserID:     userID,
		ProfileURL: profileURL,
		Timeout:    scrapeTimeout,
	})
	if err != nil {
		if e, ok := liserrors.AsError(err); ok && e.Type == liserrors.ErrorTypeEmailVerification {
			if verr := runVerificationPrompt(ctx, os.Stdin, os.Stdout, a.orch, e.VerificationID); verr != nil {
				reportScrapeError(verr)
				os.Exit(1)
			}
			fmt.Println("Re-run the scrape once the rate limiter allows it; the saved session skips the login.")
			return
		}
		reportScrapeError(err)
		os.Exit(1)
	}

	fmt.Println("Profile:")
	fmt.Printf("  Name:     %s\n", profile.Name)
	fmt.Printf("  Title:    %s\n", profile.Title)
	fmt.Printf("  Company:  %s\n", profile.Company)
	fmt.Printf("  Location: %s\n", profile.Location)
	if profile.Bio != "" {
		fmt.Printf("  Bio:      %s\n", profile.Bio)
	}
	fmt.Printf("  URL:      %s\n", profile.ProfileURL)
}

// reportScrapeError translates the typed error taxonomy into caller
// guidance: wait-and-retry and burned-account are materially different
// situations. Verification challenges are handled interactively in
// runScrape before this is reached.
func reportScrapeError(err error) {
	e, ok := liserrors.AsError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	switch e.Type {
	case liserrors.ErrorTypeRateLimit:
		fmt.Fprintf(os.Stderr, "Rate limited: %s\n", e.Message)
		if e.WaitTime > 0 {
			fmt.Fprintf(os.Stderr, "Retry in %s.\n", e.WaitTime.Round(time.Second))
		}
	case liserrors.ErrorTypeCheckpoint:
		fmt.Fprintf(os.Stderr, "The account hit an automation checkpoint: %s\n", e.Message)
		fmt.Fprintf(os.Stderr, "It is cooling down; do not retry until the cooldown expires.\n")
	case liserrors.ErrorTypeNoCredentials:
		fmt.Fprintf(os.Stderr, "No credentials on file: %s\n", e.Message)
		fmt.Fprintf(os.Stderr, "Link an account with: liscraper auth link <userID>\n")
	case liserrors.ErrorTypeLoginFailed:
		fmt.Fprintf(os.Stderr, "Login failed: %s\n", e.Message)
	default:
		fmt.Fprintf(os.Stderr, "Scrape failed (%s): %v\n", e.Type, err)
	}
}
