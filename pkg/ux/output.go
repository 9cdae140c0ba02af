// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the Sentinel CLI.
package ux

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPass   = lipgloss.Color("#2CD7C7")
	ColorFail   = lipgloss.Color("#E74C3C")
	ColorWarn   = lipgloss.Color("#F4D03F")
	ColorMuted  = lipgloss.Color("#2C4A54")
	ColorAccent = lipgloss.Color("#20B9B4")
)

// Styles are the pre-configured lipgloss styles the CLI renders with.
var Styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Warn    lipgloss.Style
	Label   lipgloss.Style
	Box     lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Muted: lipgloss.NewStyle().Foreground(ColorMuted),
	Pass:  lipgloss.NewStyle().Foreground(ColorPass),
	Fail:  lipgloss.NewStyle().Foreground(ColorFail),
	Warn:  lipgloss.NewStyle().Foreground(ColorWarn),
	Label: lipgloss.NewStyle().Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1),
}

// StatusIcon renders a pass/fail glyph styled by outcome.
func StatusIcon(passed bool) string {
	if passed {
		return Styles.Pass.Render("✓")
	}
	return Styles.Fail.Render("✗")
}

// Title prints a styled heading line.
func Title(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// Muted prints a de-emphasized line.
func Muted(text string) {
	fmt.Println(Styles.Muted.Render(text))
}
