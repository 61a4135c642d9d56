// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/yomira-seeder/internal/ingest/source"
	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
	"github.com/taibuivan/yomira-seeder/pkg/pointer"
)

// # Field Limits

const (
	maxNameLen  = 255
	maxTitleLen = 512
	maxSlugLen  = 255
)

// # Publication Status

// Status represents the publication status of a catalog item.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusHiatus    Status = "hiatus"
	StatusCancelled Status = "cancelled"
	StatusUnknown   Status = "unknown"
)

// statusAliases maps the spellings seen across export generations onto the
// canonical enum values.
var statusAliases = map[string]Status{
	"ongoing":    StatusOngoing,
	"on-going":   StatusOngoing,
	"publishing": StatusOngoing,
	"completed":  StatusCompleted,
	"complete":   StatusCompleted,
	"finished":   StatusCompleted,
	"hiatus":     StatusHiatus,
	"on hiatus":  StatusHiatus,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"dropped":    StatusCancelled,
}

// normalizeStatus maps a raw status string to a canonical [Status].
// Unrecognized or missing values become [StatusUnknown].
func normalizeStatus(raw string) Status {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

// # Normalized Entities

// Reference is a normalized reference entity (author, artist, type, genre).
type Reference struct {
	Name     string
	Bio      *string
	ImageURL *string
}

// Comic is a normalized catalog item. Foreign keys are still natural-key
// references at this point; the entity resolver turns them into surrogate
// IDs after the reference phases commit.
type Comic struct {
	Title       string
	Slug        string
	Description *string
	CoverURL    string // remote URL, downloaded during the comic phase
	Status      Status
	PublishedAt *time.Time
	AuthorRef   string
	ArtistRef   string // optional
	TypeRef     string
	GenreRefs   []string
	Rating      float64
	Views       int64
	PageURLs    []string // optional preview/gallery pages
}

// Chapter is a normalized chapter record. ComicRef is whatever the export
// used to reference the parent comic (slug, title, or a suffixed slug).
type Chapter struct {
	ComicRef   string
	Number     float64
	Slug       string
	Title      string
	ReleasedAt *time.Time
	Views      int64
	PageURLs   []string
}

// User is a normalized account record.
type User struct {
	Username string
	Email    string
	Role     string
}

// # Per-Entity Validation

// Reference validates and normalizes a raw reference-entity record.
func ValidateReference(raw source.Record) (Reference, *apperr.AppError) {
	name := raw.FirstString("name", "title")

	v := &Validator{}
	v.Required("name", name).MaxLen("name", name, maxNameLen)
	if err := v.Err(); err != nil {
		return Reference{}, err
	}

	return Reference{
		Name:     name,
		Bio:      optionalString(raw, "bio", "description", "about"),
		ImageURL: optionalString(raw, "image", "image_url", "imageUrl", "avatar", "photo"),
	}, nil
}

// ValidateComic validates and normalizes a raw catalog-item record.
func ValidateComic(raw source.Record) (Comic, *apperr.AppError) {
	title := raw.FirstString("title", "name", "comic_title")
	slugValue := raw.FirstString("slug", "comic_slug", "comicSlug")
	author := raw.FirstString("author", "author_name", "authorName")
	typeRef := raw.FirstString("type", "category", "format")
	rating, _ := raw.FirstNumber("rating", "score")

	v := &Validator{}
	v.Required("title", title).MaxLen("title", title, maxTitleLen)
	v.Required("slug", slugValue).MaxLen("slug", slugValue, maxSlugLen)
	if slugValue != "" {
		v.Slug("slug", slugValue)
	}
	v.Required("author", author)
	v.Required("type", typeRef)
	v.Custom("rating", rating < 0 || rating > 10, "Must be between 0 and 10")
	if err := v.Err(); err != nil {
		return Comic{}, err
	}

	views, _ := raw.FirstNumber("views", "view_count", "viewCount")

	return Comic{
		Title:       title,
		Slug:        slugValue,
		Description: optionalString(raw, "description", "synopsis", "summary"),
		CoverURL:    raw.FirstString("cover", "cover_image", "coverImage", "thumbnail", "image"),
		Status:      normalizeStatus(raw.FirstString("status")),
		PublishedAt: optionalDate(raw, "published_at", "publishedAt", "publication_date", "released", "year"),
		AuthorRef:   author,
		ArtistRef:   raw.FirstString("artist", "artist_name", "artistName"),
		TypeRef:     typeRef,
		GenreRefs:   raw.FirstStringList("genres", "genre", "tags"),
		Rating:      rating,
		Views:       int64(views),
		PageURLs:    raw.FirstStringList("pages", "images"),
	}, nil
}

// ValidateChapter validates and normalizes a raw chapter record.
func ValidateChapter(raw source.Record) (Chapter, *apperr.AppError) {
	comicRef := raw.FirstString("comic", "comic_slug", "comicSlug", "manga", "series")
	number, hasNumber := raw.FirstNumber("chapter_number", "chapterNumber", "number", "chapter")

	v := &Validator{}
	v.Required("comic", comicRef)
	v.Custom("chapter_number", !hasNumber, "This field is required and must be numeric")
	v.Custom("chapter_number", hasNumber && number < 0, "Must not be negative")
	if err := v.Err(); err != nil {
		return Chapter{}, err
	}

	// Title and slug are not part of the chapter's natural key, so both are
	// permissive: missing values are derived from the chapter number.
	title := raw.FirstString("title", "name")
	if title == "" {
		title = fmt.Sprintf("Chapter %s", trimNumber(number))
	}
	slugValue := raw.FirstString("slug")
	if slugValue == "" {
		slugValue = "chapter-" + strings.ReplaceAll(trimNumber(number), ".", "-")
	}

	views, _ := raw.FirstNumber("views", "view_count", "viewCount")

	return Chapter{
		ComicRef:   comicRef,
		Number:     number,
		Slug:       slugValue,
		Title:      title,
		ReleasedAt: optionalDate(raw, "released_at", "releasedAt", "release_date", "date"),
		Views:      int64(views),
		PageURLs:   raw.FirstStringList("pages", "images"),
	}, nil
}

// ValidateUser validates and normalizes a raw account record.
func ValidateUser(raw source.Record) (User, *apperr.AppError) {
	username := raw.FirstString("username", "login", "name")
	email := raw.FirstString("email", "mail")
	role := strings.ToLower(raw.FirstString("role"))
	if role == "" {
		role = "user"
	}

	v := &Validator{}
	v.Required("username", username).MaxLen("username", username, maxNameLen)
	v.Required("email", email)
	if email != "" {
		v.Email("email", email)
	}
	v.OneOf("role", role, "user", "moderator", "admin")
	if err := v.Err(); err != nil {
		return User{}, err
	}

	return User{Username: username, Email: strings.ToLower(email), Role: role}, nil
}

// # Batch Validation

// Failure pairs a rejected raw record with the reason it was rejected.
type Failure struct {
	Raw source.Record
	Err *apperr.AppError
}

// Batch runs a per-entity validator over every record, partitioning the
// input into normalized records and failures. One invalid record never
// affects its siblings.
func Batch[T any](records []source.Record, fn func(source.Record) (T, *apperr.AppError)) ([]T, []Failure) {
	valid := make([]T, 0, len(records))
	var failures []Failure

	for _, raw := range records {
		normalized, err := fn(raw)
		if err != nil {
			failures = append(failures, Failure{Raw: raw, Err: err})
			continue
		}
		valid = append(valid, normalized)
	}

	return valid, failures
}

// # Field Helpers

// optionalString extracts an optional field, normalizing absence to nil.
func optionalString(raw source.Record, fields ...string) *string {
	if s := raw.FirstString(fields...); s != "" {
		return pointer.To(s)
	}
	return nil
}

// dateLayouts are tried in order when parsing date-like fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006",
}

// optionalDate extracts an optional date field. A bare numeric year is also
// accepted since some exports only record the publication year.
func optionalDate(raw source.Record, fields ...string) *time.Time {
	for _, field := range fields {
		switch v := raw[field].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return pointer.To(t.UTC())
				}
			}
		case float64:
			year := int(v)
			if year >= 1900 && year <= 2100 {
				return pointer.To(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
			}
		}
	}
	return nil
}

// trimNumber renders a chapter number without a trailing ".0".
func trimNumber(n float64) string {
	s := fmt.Sprintf("%g", n)
	return s
}
