package contracts

import "time"

// News is a news item as stored by the news service.
type News struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Views     int64     `json:"views"`
	HasFiles  bool      `json:"hasFiles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewsWithAuthor is the aggregated gateway response: the news item joined
// with its author and attached file URLs. Author stays nil when the id
// resolves to no user.
type NewsWithAuthor struct {
	News
	Author *UserShort `json:"author,omitempty"`
	Files  []string   `json:"files,omitempty"`
}

// CreateNewsRequest is the payload of the create-news event. Files are
// carried as references; the files service owns their records.
type CreateNewsRequest struct {
	AuthorID int64    `json:"authorId"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Files    []string `json:"files,omitempty"`
}

// FindAllNewsRequest lists news with pagination.
type FindAllNewsRequest struct {
	Pagination
}

// SearchNewsRequest matches title or body substrings.
type SearchNewsRequest struct {
	Pagination
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// SearchNewsResponse carries the page plus the total match count.
type SearchNewsResponse struct {
	News  []News `json:"news"`
	Total int64  `json:"total"`
}

// FindOneNewsRequest fetches one news item and bumps its view counter.
type FindOneNewsRequest struct {
	ID int64 `json:"id"`
}

// UserSubscriptionsNewsRequest lists news authored by the given users.
type UserSubscriptionsNewsRequest struct {
	Pagination
	AuthorIDs []int64 `json:"authorIds"`
}

// UpdateNewsRequest updates a news item owned by AuthorID.
type UpdateNewsRequest struct {
	ID       int64    `json:"id"`
	AuthorID int64    `json:"authorId"`
	Title    string   `json:"title,omitempty"`
	Body     string   `json:"body,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// DeleteNewsRequest deletes a news item owned by AuthorID.
type DeleteNewsRequest struct {
	ID       int64 `json:"id"`
	AuthorID int64 `json:"authorId"`
}
