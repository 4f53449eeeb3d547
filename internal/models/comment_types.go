package models

import "time"

// Comment belongs to exactly one post and one author.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	PostID    int64     `json:"postId" db:"post_id"`
	AuthorID  int64     `json:"authorId" db:"author_id"`
	Author    string    `json:"author"` // username, joined from users
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CanModify reports whether the given actor may edit or delete the
// comment. Only the comment's author may. actorID 0 means anonymous.
func (cm *Comment) CanModify(actorID int64) bool {
	return actorID != 0 && actorID == cm.AuthorID
}
