package igdb

// Game is a raw IGDB /games record. Every field except ID may be absent.
type Game struct {
	ID                int64             `json:"id"`
	Name              *string           `json:"name"`
	Summary           *string           `json:"summary"`
	FirstReleaseDate  *int64            `json:"first_release_date"` // Unix seconds
	Rating            *float64          `json:"rating"`             // 0-100
	RatingCount       *int              `json:"rating_count"`
	Cover             *Image            `json:"cover"`
	Platforms         []NamedRef        `json:"platforms,omitempty"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies,omitempty"`
}

// Image is an expanded cover reference
type Image struct {
	ID      int64   `json:"id"`
	URL     *string `json:"url"`      // protocol-relative, e.g. //images.igdb.com/...
	ImageID *string `json:"image_id"` // opaque CDN id
}

// NamedRef is an expanded reference with a name (platforms, companies)
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InvolvedCompany links a game to a company with its roles
type InvolvedCompany struct {
	ID        int64     `json:"id"`
	Company   *NamedRef `json:"company"`
	Developer bool      `json:"developer"`
	Publisher bool      `json:"publisher"`
}
