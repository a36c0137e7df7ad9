// Package history partitions terminal output into command records for
// history-style navigation. It watches the parsed output stream for
// prompt markers (OSC 133 shell-integration sequences, or a configured
// literal marker in the prompt text) and maps each command to the span
// of absolute rows from its prompt line through its last output line.
package history
