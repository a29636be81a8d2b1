package contracts

import "time"

// Comment is a comment on a news item. Replies nest one level deep under
// their parent, mirroring how listings return them.
type Comment struct {
	ID              int64     `json:"id"`
	NewsID          int64     `json:"newsId"`
	AuthorID        int64     `json:"authorId"`
	ParentCommentID int64     `json:"parentCommentId,omitempty"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"createdAt"`
	Replies         []Comment `json:"replies,omitempty"`
}

// CommentWithAuthor is the aggregated gateway view of a comment tree.
// Author merge applies recursively to replies, sourced from one batched
// identity call.
type CommentWithAuthor struct {
	Comment
	Author  *UserShort          `json:"author,omitempty"`
	Replies []CommentWithAuthor `json:"replies,omitempty"`
}

// CreateCommentRequest creates a comment, optionally as a reply.
type CreateCommentRequest struct {
	NewsID          int64  `json:"newsId"`
	AuthorID        int64  `json:"authorId"`
	ParentCommentID int64  `json:"parentCommentId,omitempty"`
	Text            string `json:"text"`
}

// FindAllCommentsRequest lists top-level comments with replies.
type FindAllCommentsRequest struct {
	Pagination
}

// FindNewsCommentsRequest lists comments for one news item.
type FindNewsCommentsRequest struct {
	Pagination
	NewsID int64 `json:"newsId"`
}

// FindCommentByIDRequest fetches one comment with its replies.
type FindCommentByIDRequest struct {
	ID int64 `json:"id"`
}

// UpdateCommentRequest edits a comment owned by AuthorID.
type UpdateCommentRequest struct {
	ID       int64  `json:"id"`
	AuthorID int64  `json:"authorId"`
	Text     string `json:"text"`
}

// DeleteCommentRequest deletes a comment owned by AuthorID.
type DeleteCommentRequest struct {
	ID       int64 `json:"id"`
	AuthorID int64 `json:"authorId"`
}
