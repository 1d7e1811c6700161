package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/scraper"
)

// codeSubmitter is the slice of the orchestrator the verification prompt
// needs. Satisfied by *scraper.Orchestrator.
type codeSubmitter interface {
	SubmitVerificationCode(ctx context.Context, id, code string) (scraper.VerificationResult, error)
}

// runVerificationPrompt collects one-time codes from in and submits them
// until the login is verified, attempts run out, or input ends. The held
// browser page only exists inside this process, so the code has to be
// supplied before the command exits.
func runVerificationPrompt(ctx context.Context, in io.Reader, out io.Writer, sub codeSubmitter, id string) error {
	fmt.Fprintln(out, "A verification code was sent to the account's email.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter code (blank to abort): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return liserrors.NewLoginFailed("verification aborted before a code was accepted")
		}
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			return liserrors.NewLoginFailed("verification aborted")
		}

		result, err := sub.SubmitVerificationCode(ctx, id, code)
		if err != nil {
			return err
		}
		if result.Success {
			fmt.Fprintln(out, "Verification accepted. The session is cached; scrapes will reuse it.")
			return nil
		}
		fmt.Fprintf(out, "Invalid code. %d attempt(s) remaining.\n", result.AttemptsLeft)
	}
}
