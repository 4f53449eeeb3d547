package models

import "time"

// Post is a single publication.
// The author is set at creation time and never changes. IsPublished
// defaults to true and is never accepted from client input.
type Post struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Text        string    `json:"text" db:"text"`
	PubDate     time.Time `json:"pubDate" db:"pub_date"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	ImageURL    *string   `json:"imageUrl,omitempty" db:"image_url"`

	AuthorID int64  `json:"authorId" db:"author_id"`
	Author   string `json:"author"` // username, joined from users

	CategoryID *int64    `json:"categoryId,omitempty" db:"category_id"`
	Category   *Category `json:"category,omitempty"`

	// Number of comments, annotated by the feed queries.
	CommentCount int64 `json:"commentCount"`
}

// IsLive reports whether the post is visible to the general public at
// the given instant: it must be published, its publish date must not be
// in the future, and its category (if it has one) must be published.
// A post without a category passes the category clause here; the feed
// queries are stricter and only ever list categorized posts.
func (p *Post) IsLive(now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	if p.Category != nil && !p.Category.IsPublished {
		return false
	}
	return true
}

// VisibleTo reports whether the given viewer may see the post.
// The author always sees their own post, published or not; everyone
// else only sees it while it is live. viewerID 0 means anonymous.
func (p *Post) VisibleTo(viewerID int64, now time.Time) bool {
	if viewerID != 0 && viewerID == p.AuthorID {
		return true
	}
	return p.IsLive(now)
}

// CanModify reports whether the given actor may edit or delete the
// post. Only the author may. actorID 0 means anonymous and always
// fails.
func (p *Post) CanModify(actorID int64) bool {
	return actorID != 0 && actorID == p.AuthorID
}
