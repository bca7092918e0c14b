package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForDirectory asks for a directory path on w and reads the answer
// from r. Returns the current directory if the user enters nothing.
func PromptForDirectory(r io.Reader, w io.Writer) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Fprintf(w, "Frame directory [%s]: ", cwd)

	reader := bufio.NewReader(r)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read input, using current directory")
		return cwd
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return cwd
	}

	return input
}

// ReadPrompts reads one prompt per line from path. Blank lines and lines
// starting with '#' are skipped.
func ReadPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompts file: %w", err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return prompts, nil
}
