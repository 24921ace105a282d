package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// readURLs collects URLs from args, else from file, else from stdin when it
// is not a terminal.
func readURLs(args []string, file string, stdin io.Reader) ([]string, error) {
	var urls []string
	for _, a := range args {
		urls = append(urls, splitURLs(a)...)
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read URL file: %w", err)
		}
		urls = append(urls, splitURLs(string(data))...)
	}

	if len(args) == 0 && file == "" && stdin != nil && !interactive(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		urls = append(urls, splitURLs(string(data))...)
	}
	return urls, nil
}

// splitURLs splits on newlines, trims each line and drops blanks.
func splitURLs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
