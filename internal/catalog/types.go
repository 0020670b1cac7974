package catalog

// Movie is a single title as returned by list and search endpoints.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
}

// MovieDetails is the full record returned by /movie/{id}.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Runtime     int     `json:"runtime"`
	Status      string  `json:"status"`
	Tagline     string  `json:"tagline"`
	IMDbID      string  `json:"imdb_id"`
	Genres      []Genre `json:"genres"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one billed performer. Order is the provider's billing position.
type CastMember struct {
	CastID      int    `json:"cast_id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Video is a clip attached to a movie (trailer, teaser, featurette...).
type Video struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
	Key      string `json:"key"`
}

// Page is one page of a paginated list response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Detail aggregates everything a detail view needs for one movie.
type Detail struct {
	Movie  MovieDetails `json:"movie"`
	Cast   []CastMember `json:"cast"`
	Videos []Video      `json:"videos"`
}

// creditsResponse wraps the /movie/{id}/credits response.
type creditsResponse struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
}

// videosResponse wraps the /movie/{id}/videos response.
type videosResponse struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// apiStatus is the error body TMDb returns alongside non-2xx statuses.
type apiStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
