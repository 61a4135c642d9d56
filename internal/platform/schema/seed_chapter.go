package schema

// ChapterTable represents the 'seed.chapter' table
type ChapterTable struct {
	Table         string
	ID            string
	ComicID       string
	ChapterNumber string
	Slug          string
	Title         string
	ReleasedAt    string
	Views         string
	CreatedAt     string
	UpdatedAt     string
}

// Chapter is the schema definition for seed.chapter.
// (comicid, chapternumber) is the natural key used for idempotent upsert.
var Chapter = ChapterTable{
	Table:         "seed.chapter",
	ID:            "id",
	ComicID:       "comicid",
	ChapterNumber: "chapternumber",
	Slug:          "slug",
	Title:         "title",
	ReleasedAt:    "releasedat",
	Views:         "views",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

func (t ChapterTable) Columns() []string {
	return []string{
		t.ID, t.ComicID, t.ChapterNumber, t.Slug, t.Title, t.ReleasedAt,
		t.Views, t.CreatedAt, t.UpdatedAt,
	}
}

// PageTable represents one of the page-image tables. Page rows are immutable:
// re-seeding an owner deletes its rows and reinserts them with contiguous
// ordering starting at 1.
type PageTable struct {
	Table    string
	ID       string
	OwnerID  string
	ImageURL string
	Ord      string
}

// ComicPage is the schema definition for seed.comicpage (preview/gallery pages).
var ComicPage = PageTable{
	Table:    "seed.comicpage",
	ID:       "id",
	OwnerID:  "comicid",
	ImageURL: "imageurl",
	Ord:      "ord",
}

// ChapterPage is the schema definition for seed.chapterpage.
var ChapterPage = PageTable{
	Table:    "seed.chapterpage",
	ID:       "id",
	OwnerID:  "chapterid",
	ImageURL: "imageurl",
	Ord:      "ord",
}

func (t PageTable) Columns() []string {
	return []string{t.ID, t.OwnerID, t.ImageURL, t.Ord}
}
