// Package ui renders command-line output for the poser binary.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/phanxgames/poser"
)

var (
	colorAccent = lipgloss.Color("#5D9CEC")
	colorMuted  = lipgloss.Color("#7A7F8A")
	colorGood   = lipgloss.Color("#40E080")
	colorBad    = lipgloss.Color("#FF5555")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGood)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleCode    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// Printer writes styled output. Results go to Out and diagnostics to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer on stdout and stderr.
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Title prints a bold heading.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.Out, styleTitle.Render(s))
}

// Info prints a muted diagnostic line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Err, styleMuted.Render(fmt.Sprintf(format, args...)))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Err, styleSuccess.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.Err, styleError.Render("✗ "+msg))
}

// Code prints a pose code in a box.
func (p *Printer) Code(code string) {
	fmt.Fprintln(p.Out, styleCode.Render(code))
}

// Raw prints s unstyled, for output meant to be piped.
func (p *Printer) Raw(s string) {
	fmt.Fprintln(p.Out, s)
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleMuted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	fmt.Fprintln(p.Out, t.Render())
}

// Pose prints every joint's offset.
func (p *Printer) Pose(pose poser.Pose) {
	rows := make([][]string, 0, poser.JointCount)
	for _, j := range poser.Joints() {
		rows = append(rows, []string{j.String(), fmt.Sprintf("%.2f", pose[j])})
	}
	p.Table([]string{"joint", "degrees"}, rows)
}

// Transforms prints the world placement of every part.
func (p *Printer) Transforms(t poser.Table) {
	rows := make([][]string, 0, poser.PartCount)
	for _, part := range poser.Parts() {
		tr := t[part]
		rows = append(rows, []string{
			part.String(),
			fmt.Sprintf("%.2f", tr.Position.X),
			fmt.Sprintf("%.2f", tr.Position.Y),
			fmt.Sprintf("%.2f", tr.End.X),
			fmt.Sprintf("%.2f", tr.End.Y),
			fmt.Sprintf("%.2f", tr.Rotation),
		})
	}
	p.Table([]string{"part", "x", "y", "end x", "end y", "rotation"}, rows)
}

// Solution prints a two-bone IK result.
func (p *Printer) Solution(limb poser.Limb, sol poser.IKSolution) {
	stretch := styleSuccess.Render("reachable")
	if sol.Stretch > 1 {
		stretch = styleError.Render(fmt.Sprintf("stretched %.3fx", sol.Stretch))
	}
	p.Table([]string{"joint", "degrees"}, [][]string{
		{limb.Root.String(), fmt.Sprintf("%.2f", sol.Angle1)},
		{limb.Mid.String(), fmt.Sprintf("%.2f", sol.Angle2)},
	})
	fmt.Fprintln(p.Out, stretch)
}

// Commands prints the preset pose commands with their codes.
func (p *Printer) Commands() {
	names := poser.Commands()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		pose, err := poser.ParseCommand(name)
		if err != nil {
			continue
		}
		rows = append(rows, []string{name, nonZero(pose)})
	}
	p.Table([]string{"command", "joints"}, rows)
}

// nonZero lists the joints a pose moves away from zero.
func nonZero(pose poser.Pose) string {
	var parts []string
	for _, j := range poser.Joints() {
		if pose[j] != 0 {
			parts = append(parts, fmt.Sprintf("%s %.0f", j, pose[j]))
		}
	}
	if len(parts) == 0 {
		return styleMuted.Render("(all zero)")
	}
	sort.Strings(parts)
	out := parts[0]
	for _, s := range parts[1:] {
		out += ", " + s
	}
	return out
}
