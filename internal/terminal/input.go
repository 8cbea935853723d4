package terminal

import (
	"fmt"
	"io"
	"strings"
)

// ReadInput reads a whole message from r, typically a pipe on stdin.
func ReadInput(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
