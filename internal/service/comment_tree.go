package service

import (
	"Murmur/internal/model"
)

// CommentNode 两级展示：顶层评论及其下所有回复
type CommentNode struct {
	model.Comment
	Replies []*CommentNode `json:"replies"`
}

// BuildTree 把平铺的评论组装成树，不修改入参，保持输入顺序
//
// 父评论不在列表中的评论作为根；回复的回复挂在顶层祖先下；处于环中的评论作为根。
func BuildTree(flat []*model.Comment) []*CommentNode {
	nodes := make(map[uint64]*CommentNode, len(flat))
	order := make([]*CommentNode, 0, len(flat))
	for _, c := range flat {
		if c == nil {
			continue
		}
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		node := &CommentNode{Comment: *c, Replies: []*CommentNode{}}
		nodes[c.ID] = node
		order = append(order, node)
	}

	roots := make([]*CommentNode, 0)
	for _, node := range order {
		top := topAncestor(node, nodes)
		if top == nil {
			roots = append(roots, node)
			continue
		}
		top.Replies = append(top.Replies, node)
	}
	return roots
}

// topAncestor 沿父链向上找到顶层评论；自身是根、或父链成环时返回 nil
func topAncestor(node *CommentNode, nodes map[uint64]*CommentNode) *CommentNode {
	if node.ParentID == nil {
		return nil
	}
	parent, ok := nodes[*node.ParentID]
	if !ok {
		return nil
	}

	visited := map[uint64]struct{}{node.ID: {}}
	cur := parent
	for {
		if _, seen := visited[cur.ID]; seen {
			return nil
		}
		visited[cur.ID] = struct{}{}
		if cur.ParentID == nil {
			return cur
		}
		next, ok := nodes[*cur.ParentID]
		if !ok {
			// 孤儿评论本身是根
			return cur
		}
		cur = next
	}
}
