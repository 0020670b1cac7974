package telegram

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// markup renders either MarkdownV2 or plain text from the same layout.
type markup struct {
	md bool
}

func (m markup) text(s string) string {
	if m.md {
		return EscapeMdV2(s)
	}
	return s
}

func (m markup) bold(s string) string {
	if m.md {
		return FormatBold(s)
	}
	return s
}

func (m markup) italic(s string) string {
	if m.md {
		return FormatItalic(s)
	}
	return s
}

// cardLine renders one numbered list entry: "3. Dune (2021) ★ 7.8".
func cardLine(n int, c catalog.CardView) string {
	return fmt.Sprintf("%d. %s (%s) ★ %s", n, c.Title, c.Year, c.Rating)
}

// FormatList renders a titled, numbered list of cards. start is the number of
// the first entry.
func FormatList(header string, cards []catalog.CardView, start int, md bool) string {
	m := markup{md: md}
	var sb strings.Builder
	sb.WriteString(m.bold(header))
	sb.WriteString("\n\n")
	for i, c := range cards {
		sb.WriteString(m.text(cardLine(start+i, c)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatDetail renders a detail card. Trailers are sent as buttons, so only
// the placeholder line appears here when there are none.
func FormatDetail(v catalog.DetailView, md bool) string {
	m := markup{md: md}
	var sb strings.Builder

	sb.WriteString(m.bold(v.Title))
	sb.WriteString("\n")
	if v.Tagline != "" {
		sb.WriteString(m.italic(v.Tagline))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.text(v.Overview))
	sb.WriteString("\n\n")

	fields := []struct{ label, value string }{
		{"Genres", v.Genres},
		{"Release date", v.ReleaseDate},
		{"Runtime", v.Runtime},
		{"Rating", v.Rating + "/10"},
	}
	for _, f := range fields {
		sb.WriteString(m.bold(f.label + ":"))
		sb.WriteString(" ")
		sb.WriteString(m.text(f.value))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.bold("Cast"))
	sb.WriteString("\n")
	if text := v.CastText(); text != "" {
		sb.WriteString(m.text(text))
		sb.WriteString("\n")
	}
	for _, c := range v.Cast {
		sb.WriteString(m.text(fmt.Sprintf("• %s as %s", c.Name, c.Character)))
		sb.WriteString("\n")
	}

	if text := v.TrailersText(); text != "" {
		sb.WriteString("\n")
		sb.WriteString(m.bold("Trailers"))
		sb.WriteString("\n")
		sb.WriteString(m.text(text))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// buttonLabel truncates s to maxButtonLabel runes.
func buttonLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxButtonLabel {
		return s
	}
	return string(r[:maxButtonLabel]) + "…"
}
