package catalog

const (
	siteYouTube = "YouTube"
	typeTrailer = "Trailer"
)

// SelectTrailers picks which videos to present for a movie.
//
// Official YouTube trailers win. If there are none, any YouTube trailer is
// returned instead. Provider order is preserved; the result may be empty.
func SelectTrailers(videos []Video) []Video {
	official := make([]Video, 0, len(videos))
	fallback := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.Site != siteYouTube || v.Type != typeTrailer {
			continue
		}
		fallback = append(fallback, v)
		if v.Official {
			official = append(official, v)
		}
	}
	if len(official) > 0 {
		return official
	}
	return fallback
}

// EmbedURL returns the privacy-enhanced YouTube embed URL for a video key.
func EmbedURL(key string) string {
	return "https://www.youtube-nocookie.com/embed/" + key
}

// WatchURL returns the regular YouTube watch URL for a video key.
func WatchURL(key string) string {
	return "https://www.youtube.com/watch?v=" + key
}
