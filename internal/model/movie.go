package model

// Movie is a catalog entry. The favourites flow only ever reads it.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genre       Genre    `json:"genre"`
	Director    Director `json:"director"`
	Image       Image    `json:"image"`
	Featured    bool     `json:"featured"`
	ReleaseYear int      `json:"releaseYear,omitempty"`
	Actors      []Actor  `json:"actors"`
}

type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Director struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	BirthYear int    `json:"birthYear,omitempty"`
	DeathYear *int   `json:"deathYear"`
}

type Image struct {
	URL         string `json:"imageUrl"`
	Attribution string `json:"imageAttribution"`
}

type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
