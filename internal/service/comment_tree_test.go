package service

import (
	"Murmur/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cm(id uint64, parent uint64) *model.Comment {
	c := &model.Comment{ID: id, PostID: postB, UserID: userA, Content: "c"}
	if parent != 0 {
		p := parent
		c.ParentID = &p
	}
	return c
}

func ids(nodes []*CommentNode) []uint64 {
	out := make([]uint64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	tests := []struct {
		name    string
		flat    []*model.Comment
		roots   []uint64
		replies map[uint64][]uint64
	}{
		{
			name:  "empty",
			flat:  nil,
			roots: []uint64{},
		},
		{
			name:    "two levels keep input order",
			flat:    []*model.Comment{cm(1, 0), cm(2, 1), cm(3, 0), cm(4, 1)},
			roots:   []uint64{1, 3},
			replies: map[uint64][]uint64{1: {2, 4}, 3: {}},
		},
		{
			name:    "reply of reply goes under top-level ancestor",
			flat:    []*model.Comment{cm(1, 0), cm(2, 1), cm(3, 2), cm(4, 3)},
			roots:   []uint64{1},
			replies: map[uint64][]uint64{1: {2, 3, 4}},
		},
		{
			name:    "orphan is root",
			flat:    []*model.Comment{cm(5, 99), cm(6, 5)},
			roots:   []uint64{5},
			replies: map[uint64][]uint64{5: {6}},
		},
		{
			name:  "cycle members are roots",
			flat:  []*model.Comment{cm(7, 8), cm(8, 7), cm(9, 9)},
			roots: []uint64{7, 8, 9},
		},
		{
			name:    "child listed before parent",
			flat:    []*model.Comment{cm(2, 1), cm(1, 0)},
			roots:   []uint64{1},
			replies: map[uint64][]uint64{1: {2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := BuildTree(tt.flat)
			assert.Equal(t, tt.roots, ids(roots))
			for _, r := range roots {
				if want, ok := tt.replies[r.ID]; ok {
					assert.Equal(t, want, ids(r.Replies), "replies of %d", r.ID)
				}
			}
		})
	}
}

func TestBuildTree_IsPure(t *testing.T) {
	flat := []*model.Comment{cm(1, 0), cm(2, 1), cm(3, 2)}
	before := make([]model.Comment, len(flat))
	for i, c := range flat {
		before[i] = *c
	}

	first := BuildTree(flat)
	second := BuildTree(flat)

	for i, c := range flat {
		assert.Equal(t, before[i], *c)
	}
	require.Len(t, first, 1)
	assert.Equal(t, ids(first[0].Replies), ids(second[0].Replies))
	first[0].Replies = nil
	assert.Len(t, second[0].Replies, 2)
}
