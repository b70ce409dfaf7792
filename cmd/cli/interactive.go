package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/ioformats"
	"purchase-drivers/internal/models"
	"purchase-drivers/internal/render"
)

const defaultSaveFile = "resultado_compra.json"

var urlRe = regexp.MustCompile(`^https?://`)

func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	s := &session{
		in:       bufio.NewScanner(cmd.InOrStdin()),
		out:      cmd.OutOrStdout(),
		analyze:  a.pipeline.Run,
		show:     func(w io.Writer, r models.Report) { render.Report(w, r, a.tax) },
		save:     ioformats.SaveReport,
		saveFile: defaultSaveFile,
	}
	s.loop(cmd.Context())
	return nil
}

// session is the read-analyze-print loop behind the interactive command.
type session struct {
	in       *bufio.Scanner
	out      io.Writer
	analyze  func(ctx context.Context, rawURL string) (models.Report, error)
	show     func(w io.Writer, r models.Report)
	save     func(path string, r models.Report) error
	saveFile string
}

func (s *session) loop(ctx context.Context) {
	fmt.Fprintln(s.out, "=== Purchase driver analyzer ===")
	fmt.Fprintln(s.out, "Paste a product URL (or type 'exit'):")
	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nExiting.")
			return
		}
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out, "\nExiting.")
			return
		}
		line := strings.TrimSpace(s.in.Text())
		switch {
		case line == "":
			continue
		case isQuit(line):
			fmt.Fprintln(s.out, "Bye!")
			return
		case !urlRe.MatchString(line):
			fmt.Fprintln(s.out, "Enter a valid URL starting with http(s)://")
			continue
		}

		r, err := s.analyze(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "%s: %v\n", errorKind(err), err)
			continue
		}
		s.show(s.out, r)

		fmt.Fprint(s.out, "Save result to JSON? (y/n): ")
		if !s.in.Scan() {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
		case "y", "yes", "s", "si", "sí":
			if err := s.save(s.saveFile, r); err != nil {
				fmt.Fprintf(s.out, "Could not save: %v\n", err)
				continue
			}
			fmt.Fprintf(s.out, "Saved to %s\n", s.saveFile)
		}
	}
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "salir", "exit", "quit":
		return true
	}
	return false
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, crawler.ErrStatus):
		return "HTTP error"
	case errors.Is(err, crawler.ErrInvalidURL), errors.Is(err, crawler.ErrNonHTML):
		return "Error"
	case errors.Is(err, context.DeadlineExceeded):
		return "Network error"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return "Network error"
	}
	return "Error"
}
