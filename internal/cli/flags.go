package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// ParseLine converts a one-based line argument to a zero-based line.
func ParseLine(raw string) (int, error) {
	line, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line %q (expected a positive line number)", raw)
	}
	return line - 1, nil
}

// ParseLocation splits "path:line" on its last colon. The line is one-based
// on input and zero-based on output.
func ParseLocation(raw string) (string, int, error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return "", 0, fmt.Errorf("invalid location %q (expected <file>:<line>)", raw)
	}
	line, err := ParseLine(raw[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return raw[:idx], line, nil
}
