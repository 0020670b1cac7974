package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// renderCard formats one list row. n is the 1-based row number.
func renderCard(n int, c catalog.CardView, selected bool) string {
	line := fmt.Sprintf("%3d. %s (%s)", n, c.Title, c.Year)
	if selected {
		return styleSelected.Render("▸ "+line) + " " + styleRating.Render("★ "+c.Rating)
	}
	return "  " + line + " " + styleRating.Render("★ "+c.Rating)
}

// renderList formats a page of cards under a header, numbering from start.
func renderList(header string, cards []catalog.CardView, start int) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(header))
	sb.WriteString("\n")
	for i, c := range cards {
		sb.WriteString(renderCard(start+i, c, false))
		sb.WriteString("\n")
	}
	return sb.String()
}

func pageHeader(query string, page, total int) string {
	if query == "" {
		return fmt.Sprintf("Popular movies (page %d of %d)", page, total)
	}
	return fmt.Sprintf("Results for %q (page %d of %d)", query, page, total)
}

// renderDetail formats a detail view. width wraps the overview when positive.
func renderDetail(v catalog.DetailView, width int) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(v.Title))
	sb.WriteString("\n")
	if v.Tagline != "" {
		sb.WriteString(styleTagline.Render(v.Tagline))
		sb.WriteString("\n\n")
	}

	overview := v.Overview
	if width > 0 {
		overview = lipgloss.NewStyle().Width(width).Render(overview)
	}
	sb.WriteString(overview)
	sb.WriteString("\n\n")

	field := func(label, value string) {
		sb.WriteString(styleLabel.Render(label+":") + " " + value + "\n")
	}
	field("Genres", v.Genres)
	field("Release date", v.ReleaseDate)
	field("Runtime", v.Runtime)
	field("Rating", styleRating.Render(v.Rating+"/10"))
	field("Poster", styleDim.Render(v.PosterURL))

	sb.WriteString("\n" + styleLabel.Render("Cast") + "\n")
	if text := v.CastText(); text != "" {
		sb.WriteString(styleDim.Render(text) + "\n")
	}
	for _, c := range v.Cast {
		sb.WriteString(fmt.Sprintf("  • %s as %s\n", c.Name, c.Character))
	}

	sb.WriteString("\n" + styleLabel.Render("Trailers") + "\n")
	if text := v.TrailersText(); text != "" {
		sb.WriteString(styleDim.Render(text) + "\n")
	}
	for _, t := range v.Trailers {
		sb.WriteString(fmt.Sprintf("  ▶ %s %s\n", t.Name, styleInfo.Render(t.WatchURL)))
	}
	return sb.String()
}
