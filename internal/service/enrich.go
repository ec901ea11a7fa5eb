package service

import (
	"context"

	"github.com/d60-Lab/chirp/internal/directory"
	"github.com/d60-Lab/chirp/internal/model"
)

// enrichPosts 一次批量查询作者并逐条拼接；任一作者缺失或没有用户名则整体失败
func enrichPosts(ctx context.Context, dir directory.Directory, posts []*model.Post) ([]model.EnrichedPost, error) {
	out := make([]model.EnrichedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	profiles, err := dir.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, upstream("directory", err)
	}

	byID := make(map[string]model.AuthorProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	for _, p := range posts {
		author, ok := byID[p.AuthorID]
		if !ok {
			return nil, &ConsistencyError{PostID: p.ID, AuthorID: p.AuthorID, Reason: "author not found"}
		}
		if author.Username == "" {
			return nil, &ConsistencyError{PostID: p.ID, AuthorID: p.AuthorID, Reason: "author has no username"}
		}
		out = append(out, model.EnrichedPost{Post: *p, Author: author})
	}
	return out, nil
}
