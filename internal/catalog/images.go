package catalog

const imageBaseURL = "https://image.tmdb.org/t/p/"

// Poster sizes used by the front ends.
const (
	SizeCard   = "w342"
	SizeDetail = "w500"
)

// placeholders maps a poster size to a same-aspect "No Image" placeholder.
var placeholders = map[string]string{
	SizeCard:   "https://via.placeholder.com/342x513?text=No+Image",
	SizeDetail: "https://via.placeholder.com/500x750?text=No+Image",
}

// PosterURL returns the full URL for a poster path, or "" when there is none.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// PosterOrPlaceholder is PosterURL with a fixed placeholder for missing posters.
func PosterOrPlaceholder(posterPath, size string) string {
	if u := PosterURL(posterPath, size); u != "" {
		return u
	}
	if p, ok := placeholders[size]; ok {
		return p
	}
	return placeholders[SizeDetail]
}
