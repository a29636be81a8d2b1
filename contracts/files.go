package contracts

// NewsFiles groups the stored file URLs for one news item.
type NewsFiles struct {
	NewsID int64    `json:"newsId"`
	Files  []string `json:"files"`
}

// CreateFilesRequest is the payload of the create-files event, emitted by
// the news service after the news record is durably written.
type CreateFilesRequest struct {
	NewsID int64    `json:"newsId"`
	Files  []string `json:"files"`
}

// GetFilesByNewsIDRequest fetches file URLs for one news item.
type GetFilesByNewsIDRequest struct {
	NewsID int64 `json:"newsId"`
}

// GetFilesByNewsIDsRequest batch-fetches files for aggregation joins.
type GetFilesByNewsIDsRequest struct {
	NewsIDs []int64 `json:"newsIds"`
}

// UpdateFilesRequest replaces the file set for a news item.
type UpdateFilesRequest struct {
	NewsID int64    `json:"newsId"`
	Files  []string `json:"files"`
}

// DeleteFilesRequest is the payload of the delete-files event.
type DeleteFilesRequest struct {
	NewsID int64 `json:"newsId"`
}
