package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure IGDB and TMDB credentials",
	Long: `Prompts for the Twitch client ID and secret used by IGDB and, optionally, a TMDB
read access token, then writes them to the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return runSetup(cfg, cfgFile, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// runSetup prompts for provider credentials and saves the config to path
// (the default config file when path is empty)
func runSetup(cfg *adapter.Config, path string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	// Secrets are read without echo only from an interactive stdin
	secretFD := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secretFD = int(f.Fd())
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to Backlog!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Games come from IGDB, which authenticates through a Twitch application.")
	fmt.Fprintln(out, "Create one at https://dev.twitch.tv/console/apps to get a client ID and secret.")
	fmt.Fprintln(out)

	// Loop until we get a client ID
	for {
		id, err := prompt(reader, out, "Twitch client ID", cfg.IGDB.ClientID)
		if err != nil {
			return err
		}
		if id != "" {
			cfg.IGDB.ClientID = id
			break
		}
		fmt.Fprintln(out, "Client ID cannot be empty. Please try again.")
	}

	for {
		secret, err := promptSecret(reader, secretFD, out, "Twitch client secret", cfg.IGDB.ClientSecret != "")
		if err != nil {
			return err
		}
		if secret != "" {
			cfg.IGDB.ClientSecret = secret
		}
		if cfg.IGDB.ClientSecret != "" {
			break
		}
		fmt.Fprintln(out, "Client secret cannot be empty. Please try again.")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Films come from TMDB. Paste a v4 read access token, or leave blank to skip.")
	token, err := promptSecret(reader, secretFD, out, "TMDB read token", cfg.TMDB.ReadToken != "")
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if token != "" {
		cfg.TMDB.ReadToken = token
	}

	if err := adapter.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved!")
	if !cfg.HasFilms() {
		fmt.Fprintln(out, "  The film catalog stays disabled until a TMDB token is added.")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Try: backlog popular")
	return nil
}

// prompt reads one line, keeping current when the answer is blank
func prompt(reader *bufio.Reader, out io.Writer, label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}

	input, err := readLine(reader)
	if err != nil {
		return "", err
	}
	if input == "" {
		return current, nil
	}
	return input, nil
}

// promptSecret reads a value without echo when fd is a terminal (fd >= 0).
// A blank answer returns "" so the caller keeps the existing value.
func promptSecret(reader *bufio.Reader, fd int, out io.Writer, label string, hasCurrent bool) (string, error) {
	if hasCurrent {
		fmt.Fprintf(out, "%s [keep current]: ", label)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}

	if fd >= 0 && reader.Buffered() == 0 {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	return readLine(reader)
}

// readLine returns the next trimmed line. io.EOF is returned only when no input is left.
func readLine(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err == io.EOF && input != "" {
		err = nil
	}
	if err == io.EOF {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}
