package catalog

import (
	"fmt"
	"strings"
)

// CastLimit is how many cast members a detail view shows.
const CastLimit = 10

// Display defaults for missing data.
const (
	NotAvailable  = "N/A"
	NoSynopsis    = "No synopsis available."
	NoCast        = "No cast information available."
	NoTrailers    = "No trailers available."
	NoResultsText = "No results found for %q."
)

// CardView is a list entry with every display default already resolved.
type CardView struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Rating    string `json:"rating"`
	PosterURL string `json:"poster_url"`
}

// CastView is one displayed cast line.
type CastView struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// TrailerView is one displayed trailer.
type TrailerView struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	EmbedURL string `json:"embed_url"`
	WatchURL string `json:"watch_url"`
}

// DetailView is a movie detail with every display default already resolved.
type DetailView struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Tagline     string        `json:"tagline,omitempty"`
	Overview    string        `json:"overview"`
	Genres      string        `json:"genres"`
	ReleaseDate string        `json:"release_date"`
	Runtime     string        `json:"runtime"`
	Rating      string        `json:"rating"`
	PosterURL   string        `json:"poster_url"`
	Cast        []CastView    `json:"cast"`
	Trailers    []TrailerView `json:"trailers"`
}

// CastText returns the placeholder line when there is no cast to show.
func (v DetailView) CastText() string {
	if len(v.Cast) == 0 {
		return NoCast
	}
	return ""
}

// TrailersText returns the placeholder line when there are no trailers to show.
func (v DetailView) TrailersText() string {
	if len(v.Trailers) == 0 {
		return NoTrailers
	}
	return ""
}

// ShapeCard resolves display defaults for a list entry.
func ShapeCard(m Movie) CardView {
	return CardView{
		ID:        m.ID,
		Title:     m.Title,
		Year:      ReleaseYear(m.ReleaseDate),
		Rating:    FormatRating(m.VoteAverage),
		PosterURL: PosterOrPlaceholder(m.PosterPath, SizeCard),
	}
}

// ShapeCards is ShapeCard over a slice.
func ShapeCards(movies []Movie) []CardView {
	out := make([]CardView, 0, len(movies))
	for _, m := range movies {
		out = append(out, ShapeCard(m))
	}
	return out
}

// ShapeDetail resolves display defaults for a detail view.
func ShapeDetail(d *Detail) DetailView {
	m := d.Movie
	v := DetailView{
		ID:          m.ID,
		Title:       m.Title,
		Tagline:     m.Tagline,
		Overview:    orDefault(m.Overview, NoSynopsis),
		Genres:      genreNames(m.Genres),
		ReleaseDate: orDefault(m.ReleaseDate, NotAvailable),
		Runtime:     NotAvailable,
		Rating:      FormatRating(m.VoteAverage),
		PosterURL:   PosterOrPlaceholder(m.PosterPath, SizeDetail),
	}
	if m.Runtime > 0 {
		v.Runtime = fmt.Sprintf("%d min", m.Runtime)
	}

	cast := d.Cast
	if len(cast) > CastLimit {
		cast = cast[:CastLimit]
	}
	v.Cast = make([]CastView, 0, len(cast))
	for _, c := range cast {
		v.Cast = append(v.Cast, CastView{
			Name:      c.Name,
			Character: orDefault(c.Character, NotAvailable),
		})
	}

	trailers := SelectTrailers(d.Videos)
	v.Trailers = make([]TrailerView, 0, len(trailers))
	for _, t := range trailers {
		v.Trailers = append(v.Trailers, TrailerView{
			Name:     t.Name,
			Key:      t.Key,
			EmbedURL: EmbedURL(t.Key),
			WatchURL: WatchURL(t.Key),
		})
	}
	return v
}

// ReleaseYear returns the year part of a YYYY-MM-DD date, or N/A.
func ReleaseYear(date string) string {
	if len(date) < 4 {
		return NotAvailable
	}
	return date[:4]
}

// FormatRating renders a 0-10 average with one decimal.
func FormatRating(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}

// NoResults returns the "nothing found" message for a query.
func NoResults(query string) string {
	return fmt.Sprintf(NoResultsText, query)
}

func genreNames(genres []Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	if len(names) == 0 {
		return NotAvailable
	}
	return strings.Join(names, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
