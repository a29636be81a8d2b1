package gateway

import (
	"context"
	"fmt"

	"github.com/newsbus/newsbus/contracts"
)

// fetchAuthors resolves a set of author ids with ONE batched identity
// call. An empty set short-circuits without touching the broker. Ids that
// resolve to no user are simply absent from the map.
func (s *Server) fetchAuthors(ctx context.Context, ids map[int64]struct{}) (map[int64]contracts.UserShort, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}

	var users []contracts.User
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.clients.Auth.Send(ctx, contracts.PatternGetUsersByIDs,
			contracts.GetUsersByIDsRequest{IDs: list}, &users)
	})
	if err != nil {
		return nil, fmt.Errorf("author lookup failed: %w", err)
	}

	byID := make(map[int64]contracts.UserShort, len(users))
	for _, u := range users {
		byID[u.ID] = contracts.UserShort{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}
	return byID, nil
}

// fetchFiles resolves file URLs for many news items with one batched
// call. News items without files are absent from the map.
func (s *Server) fetchFiles(ctx context.Context, newsIDs []int64) (map[int64][]string, error) {
	if len(newsIDs) == 0 {
		return nil, nil
	}

	var groups []contracts.NewsFiles
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.clients.Files.Send(ctx, contracts.PatternGetFilesByNewsIDsList,
			contracts.GetFilesByNewsIDsRequest{NewsIDs: newsIDs}, &groups)
	})
	if err != nil {
		return nil, fmt.Errorf("files lookup failed: %w", err)
	}

	byNews := make(map[int64][]string, len(groups))
	for _, g := range groups {
		byNews[g.NewsID] = g.Files
	}
	return byNews, nil
}

// enrichNews joins news items with their authors and file URLs. Author
// ids are deduplicated into one batched call; a dangling author id
// leaves that item's author nil.
func (s *Server) enrichNews(ctx context.Context, items []contracts.News) ([]contracts.NewsWithAuthor, error) {
	authorIDs := make(map[int64]struct{}, len(items))
	var fileIDs []int64
	for _, item := range items {
		authorIDs[item.AuthorID] = struct{}{}
		if item.HasFiles {
			fileIDs = append(fileIDs, item.ID)
		}
	}

	authors, err := s.fetchAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	files, err := s.fetchFiles(ctx, fileIDs)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.NewsWithAuthor, len(items))
	for i, item := range items {
		out[i] = contracts.NewsWithAuthor{News: item, Files: files[item.ID]}
		if author, ok := authors[item.AuthorID]; ok {
			out[i].Author = &author
		}
	}
	return out, nil
}

// enrichComments joins a comment tree with its authors. Reply authors
// contribute their ids to the SAME single batched call as the top level.
func (s *Server) enrichComments(ctx context.Context, comments []contracts.Comment) ([]contracts.CommentWithAuthor, error) {
	authorIDs := make(map[int64]struct{})
	for _, c := range comments {
		authorIDs[c.AuthorID] = struct{}{}
		for _, r := range c.Replies {
			authorIDs[r.AuthorID] = struct{}{}
		}
	}

	authors, err := s.fetchAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.CommentWithAuthor, len(comments))
	for i, c := range comments {
		out[i] = mergeComment(c, authors)
	}
	return out, nil
}

func mergeComment(c contracts.Comment, authors map[int64]contracts.UserShort) contracts.CommentWithAuthor {
	merged := contracts.CommentWithAuthor{Comment: c}
	merged.Comment.Replies = nil
	if author, ok := authors[c.AuthorID]; ok {
		merged.Author = &author
	}
	for _, r := range c.Replies {
		merged.Replies = append(merged.Replies, mergeComment(r, authors))
	}
	return merged
}
