// Package cli implements the shortener command line: shorten, redirect,
// analytics and deactivate on top of the URL use case.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Exit codes returned by CLI.Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const separator = "----------------------"

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string, expiryHours int, password string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode, password string) (*entity.URL, error)
	GetAnalytics(ctx context.Context, shortCode string) (*entity.Analytics, error)
	DeactivateURL(ctx context.Context, shortCode string) error
}

type command struct {
	name    string
	summary string
	usage   string
	flags   func() *pflag.FlagSet
	run     func(ctx context.Context, fs *pflag.FlagSet, args []string) error
}

// CLI dispatches subcommands to the use case and prints colored results.
type CLI struct {
	useCase  urlUseCase
	out      io.Writer
	errOut   io.Writer
	success  *color.Color
	failure  *color.Color
	commands []*command
}

func New(useCase urlUseCase, out, errOut io.Writer) *CLI {
	c := &CLI{
		useCase: useCase,
		out:     out,
		errOut:  errOut,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}

	c.commands = []*command{
		{
			name:    "shorten",
			summary: "Shorten a URL",
			usage:   "shorten <url> [--expiry hours] [--password pw]",
			flags: func() *pflag.FlagSet {
				fs := pflag.NewFlagSet("shorten", pflag.ContinueOnError)
				fs.Int("expiry", 0, "expiry time in hours, zero uses the configured default")
				fs.String("password", "", "optional password for the shortened URL")
				return fs
			},
			run: c.shorten,
		},
		{
			name:    "redirect",
			summary: "Resolve a short code and record the access",
			usage:   "redirect <code> [--password pw]",
			flags: func() *pflag.FlagSet {
				fs := pflag.NewFlagSet("redirect", pflag.ContinueOnError)
				fs.String("password", "", "password of a protected URL")
				return fs
			},
			run: c.redirect,
		},
		{
			name:    "analytics",
			summary: "Show the access history of a short code",
			usage:   "analytics <code>",
			run:     c.analytics,
		},
		{
			name:    "deactivate",
			summary: "Delete a short code and its access history",
			usage:   "deactivate <code>",
			run:     c.deactivate,
		},
	}

	return c
}

// Run executes the subcommand named by args[0] and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.printHelp()
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}

	var cmd *command
	for _, candidate := range c.commands {
		if candidate.name == args[0] {
			cmd = candidate
			break
		}
	}
	if cmd == nil {
		c.failure.Fprintf(c.errOut, "Unknown command %q.\n", args[0])
		c.printHelp()
		return ExitUsage
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	if cmd.flags != nil {
		fs = cmd.flags()
	}
	fs.SetOutput(c.errOut)
	fs.Usage = func() {
		fmt.Fprintf(c.errOut, "Usage: shortener %s\n", cmd.usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return ExitUsage
	}

	if err := cmd.run(ctx, fs, fs.Args()); err != nil {
		c.failure.Fprintln(c.errOut, errorMessage(err))
		return ExitError
	}

	return ExitOK
}

func (c *CLI) printHelp() {
	fmt.Fprintln(c.errOut, "Usage: shortener [--config path] <command> [flags]")
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "Commands:")
	for _, cmd := range c.commands {
		fmt.Fprintf(c.errOut, "  %-12s %s\n", cmd.name, cmd.summary)
	}
}

func (c *CLI) shorten(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	expiry, _ := fs.GetInt("expiry")
	password, _ := fs.GetString("password")

	url, err := c.useCase.ShortenURL(ctx, args[0], expiry, password)
	if err != nil {
		return err
	}

	c.success.Fprintf(c.out, "Shortened URL: %s\n", url.ShortLink)
	fmt.Fprintf(c.out, "Expires at: %s\n", url.ExpiresAt.Format(time.DateTime))

	return nil
}

func (c *CLI) redirect(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	password, _ := fs.GetString("password")

	url, err := c.useCase.ResolveShortCode(ctx, args[0], password)
	if err != nil {
		return err
	}

	c.success.Fprintf(c.out, "Redirecting to: %s\n", url.OriginalURL)

	return nil
}

func (c *CLI) analytics(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	analytics, err := c.useCase.GetAnalytics(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, separator)
	c.success.Fprintf(c.out, "Analytics for %s:\n", analytics.ShortCode)
	fmt.Fprintln(c.out, separator)
	c.success.Fprintf(c.out, "Access count: %d\n", analytics.AccessCount)
	fmt.Fprintln(c.out, separator)
	c.success.Fprintln(c.out, "Access Logs:")
	fmt.Fprintln(c.out, separator)
	for _, l := range analytics.AccessLogs {
		fmt.Fprintf(c.out, "- %s from %s\n", l.AccessedAt.Format(time.DateTime), l.IPAddress)
	}
	fmt.Fprintln(c.out, separator)

	return nil
}

func (c *CLI) deactivate(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := c.useCase.DeactivateURL(ctx, args[0]); err != nil {
		return err
	}

	c.success.Fprintf(c.out, "Deactivated %s\n", args[0])

	return nil
}

// errorMessage returns the user-facing message for a use case error.
func errorMessage(err error) string {
	var alreadyErr *entity.AlreadyShortenedError

	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		return "Invalid URL. Please provide a valid URL."
	case errors.Is(err, entity.ErrInvalidExpiry):
		return "Invalid expiry. Please provide a non-negative number of hours."
	case errors.Is(err, entity.ErrInvalidPassword):
		return "Invalid password. Passwords are limited to 72 bytes."
	case errors.As(err, &alreadyErr):
		return fmt.Sprintf("URL already shortened: %s", alreadyErr.ShortCode)
	case errors.Is(err, entity.ErrIdentifierCollision):
		return "Short code collision. Another URL already uses this short code."
	case errors.Is(err, entity.ErrURLNotFound):
		return "Short URL not found."
	case errors.Is(err, entity.ErrURLExpired):
		return "This URL has expired."
	case errors.Is(err, entity.ErrPasswordRequired):
		return "Password is required to access this URL."
	case errors.Is(err, entity.ErrAccessDenied):
		return "Incorrect password. Access denied."
	case errors.Is(err, entity.ErrStoreUnavailable):
		return "Storage is unavailable. Please try again later."
	default:
		return "Unexpected error: " + strings.TrimSpace(err.Error())
	}
}
