package tmdb

// Page is the envelope TMDB wraps list responses in
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Movie is a raw TMDB movie. Only the detail endpoint fills Genres and,
// with append_to_response=credits, Credits.
type Movie struct {
	ID          int64    `json:"id"`
	Title       *string  `json:"title"`
	Overview    *string  `json:"overview"`
	ReleaseDate *string  `json:"release_date"` // "2006-01-02", may be ""
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int     `json:"vote_count"`
	PosterPath  *string  `json:"poster_path"`
	Genres      []Genre  `json:"genres,omitempty"`
	Credits     *Credits `json:"credits,omitempty"`
}

// Genre is a named genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Credits lists cast and crew
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is a billed actor
type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CrewMember is a crew credit
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}
