package schema

// ComicTable represents the 'seed.comic' table
type ComicTable struct {
	Table         string
	ID            string
	Title         string
	Slug          string
	Description   string
	CoverImageURL string
	Status        string
	PublishedAt   string
	AuthorID      string
	ArtistID      string
	TypeID        string
	Rating        string
	Views         string
	CreatedAt     string
	UpdatedAt     string
}

// Comic is the schema definition for seed.comic
var Comic = ComicTable{
	Table:         "seed.comic",
	ID:            "id",
	Title:         "title",
	Slug:          "slug",
	Description:   "description",
	CoverImageURL: "coverimageurl",
	Status:        "status",
	PublishedAt:   "publishedat",
	AuthorID:      "authorid",
	ArtistID:      "artistid",
	TypeID:        "typeid",
	Rating:        "rating",
	Views:         "views",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

func (t ComicTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Description, t.CoverImageURL, t.Status,
		t.PublishedAt, t.AuthorID, t.ArtistID, t.TypeID, t.Rating, t.Views,
		t.CreatedAt, t.UpdatedAt,
	}
}

// ComicGenreTable represents the 'seed.comicgenre' join table
// (composite primary key, no independent lifecycle).
type ComicGenreTable struct {
	Table   string
	ComicID string
	GenreID string
}

// ComicGenre is the schema definition for seed.comicgenre
var ComicGenre = ComicGenreTable{
	Table:   "seed.comicgenre",
	ComicID: "comicid",
	GenreID: "genreid",
}

func (t ComicGenreTable) Columns() []string {
	return []string{t.ComicID, t.GenreID}
}
