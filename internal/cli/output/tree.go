package output

import (
	"bufio"
	"io"
)

// TreeNode is one line of a rendered tree.
type TreeNode struct {
	Name     string      `json:"name" yaml:"name"`
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// TreeRenderer is implemented by types that render as a tree in table
// format.
type TreeRenderer interface {
	Tree() *TreeNode
}

// Tree implements TreeRenderer.
func (n *TreeNode) Tree() *TreeNode { return n }

// Add appends a child and returns it.
func (n *TreeNode) Add(name string) *TreeNode {
	child := &TreeNode{Name: name}
	n.Children = append(n.Children, child)
	return child
}

// PrintTree writes root and its descendants with box drawing guides:
//
//	Music
//	├── Album
//	│   └── track.mp3
//	└── playlist.m3u
func PrintTree(w io.Writer, root *TreeNode) error {
	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(root.Name + "\n")
	printChildren(bw, root, "")
	return bw.Flush()
}

func printChildren(w *bufio.Writer, n *TreeNode, indent string) {
	for i, c := range n.Children {
		branch, next := "├── ", "│   "
		if i == len(n.Children)-1 {
			branch, next = "└── ", "    "
		}
		_, _ = w.WriteString(indent + branch + c.Name + "\n")
		printChildren(w, c, indent+next)
	}
}
