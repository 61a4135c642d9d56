package schema

// RefTable represents one of the reference-entity tables (author, artist,
// type, genre). All four share the same shape: a unique name plus optional
// descriptive fields.
type RefTable struct {
	Table     string
	ID        string
	Name      string
	Bio       string
	ImageURL  string
	CreatedAt string
	UpdatedAt string
}

// Author is the schema definition for seed.author
var Author = RefTable{
	Table:     "seed.author",
	ID:        "id",
	Name:      "name",
	Bio:       "bio",
	ImageURL:  "imageurl",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Artist is the schema definition for seed.artist
var Artist = RefTable{
	Table:     "seed.artist",
	ID:        "id",
	Name:      "name",
	Bio:       "bio",
	ImageURL:  "imageurl",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Type is the schema definition for seed.type (Manga, Manhwa, Webtoon, ...)
var Type = RefTable{
	Table:     "seed.type",
	ID:        "id",
	Name:      "name",
	Bio:       "bio",
	ImageURL:  "imageurl",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Genre is the schema definition for seed.genre
var Genre = RefTable{
	Table:     "seed.genre",
	ID:        "id",
	Name:      "name",
	Bio:       "bio",
	ImageURL:  "imageurl",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t RefTable) Columns() []string {
	return []string{t.ID, t.Name, t.Bio, t.ImageURL, t.CreatedAt, t.UpdatedAt}
}
