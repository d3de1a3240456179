package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/jakenesler/trctl/transmission"
)

type styles struct {
	header  lipgloss.Style
	id      lipgloss.Style
	running lipgloss.Style
	stopped lipgloss.Style
	errored lipgloss.Style
	detail  lipgloss.Style
	empty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		id:      lipgloss.NewStyle().Width(5).Align(lipgloss.Right),
		running: lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("42")),
		stopped: lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("245")),
		errored: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}

func renderTorrents(torrents map[string]transmission.Torrent, kbytes int) string {
	s := newStyles()
	lines := []string{s.header.Render(fmt.Sprintf("torrents: %d", len(torrents)))}
	if len(torrents) == 0 {
		lines = append(lines, s.empty.Render("No torrents."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	list := lo.Values(torrents)
	sort.Slice(list, func(i, j int) bool { return list[i].RPCID < list[j].RPCID })
	for _, t := range list {
		lines = append(lines, renderTorrent(t, kbytes, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTorrent(t transmission.Torrent, kbytes int, s styles) string {
	statusStyle := s.stopped
	if t.Running {
		statusStyle = s.running
	}
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.id.Render(fmt.Sprintf("%d", t.RPCID)),
		"  ",
		statusStyle.Render(t.StatusText),
		s.detail.Render(fmt.Sprintf("%5.1f%%  %9s  ↓%9s/s ↑%9s/s  ",
			t.PercentDone,
			formatBytes(t.Size, kbytes),
			formatBytes(t.SpeedDown, kbytes),
			formatBytes(t.SpeedUp, kbytes),
		)),
		t.Name,
	)
	if t.Error != 0 {
		line += " " + s.errored.Render("["+t.ErrorString+"]")
	}
	return line
}

// formatBytes renders n using the daemon's kilo unit, 1024 when unknown.
func formatBytes(n int64, kbytes int) string {
	unit := int64(kbytes)
	if unit <= 0 {
		unit = 1024
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	suffixes := []string{"kB", "MB", "GB", "TB", "PB"}
	if unit == 1024 {
		suffixes = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	}
	value := float64(n) / float64(unit)
	i := 0
	for value >= float64(unit) && i < len(suffixes)-1 {
		value /= float64(unit)
		i++
	}
	return fmt.Sprintf("%.1f %s", value, suffixes[i])
}
