// Package ui renders terminal output for the mezzobridge CLI.
//
// Components follow a "render once and print" pattern: a Banner at the start
// of a command, a Table for zone listings, and a Result line per operation.
// Styling uses Lipgloss and is dropped entirely when stdout is not a
// terminal, so output stays clean when piped or captured by a supervisor.
package ui
