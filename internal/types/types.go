// Package types defines shared data structures used across the projviz tool.
package types

import "time"

// NodeKind identifies whether a tree node is a directory or a file.
type NodeKind string

const (
	// NodeKindDirectory marks a node that represents a filesystem directory.
	NodeKindDirectory NodeKind = "directory"
	// NodeKindFile marks a node that represents a regular file.
	NodeKindFile NodeKind = "file"
)

// Framework identifies a detected Python web framework.
type Framework string

const (
	// FrameworkNone indicates that no framework marker was found.
	FrameworkNone Framework = ""
	// FrameworkDjango identifies a Django project.
	FrameworkDjango Framework = "django"
	// FrameworkFlask identifies a Flask project.
	FrameworkFlask Framework = "flask"
	// FrameworkFastAPI identifies a FastAPI project.
	FrameworkFastAPI Framework = "fastapi"
	// FrameworkPyramid identifies a Pyramid project.
	FrameworkPyramid Framework = "pyramid"
	// FrameworkTornado identifies a Tornado project.
	FrameworkTornado Framework = "tornado"
)

// KnownFrameworks lists every non-empty framework value.
var KnownFrameworks = []Framework{
	FrameworkDjango,
	FrameworkFlask,
	FrameworkFastAPI,
	FrameworkPyramid,
	FrameworkTornado,
}

// IsValid reports whether the framework is either empty or one of the known values.
func (framework Framework) IsValid() bool {
	if framework == FrameworkNone {
		return true
	}
	for _, knownFramework := range KnownFrameworks {
		if framework == knownFramework {
			return true
		}
	}
	return false
}

// Node represents a single filesystem entry in the scanned tree.
// Path is relative to the scan root and always uses forward slashes;
// the root node carries an empty Path. Size is populated for files only.
// Children is non-nil for directories (empty for an empty directory)
// and nil for files.
type Node struct {
	Name     string
	Path     string
	Kind     NodeKind
	Size     int64
	Children []*Node
}

// IsDirectory reports whether the node represents a directory.
func (node *Node) IsDirectory() bool {
	return node.Kind == NodeKindDirectory
}

// ScanResult wraps the root node of a completed scan together with its metadata.
// A ScanResult is immutable once built and safe for concurrent reads.
type ScanResult struct {
	Root          *Node
	ScannedPath   string
	Framework     Framework
	ScanTimestamp time.Time
}

// TreeTotals aggregates node counts over a completed scan.
type TreeTotals struct {
	Directories int
	Files       int
}

// Nodes returns the total number of nodes counted.
func (totals TreeTotals) Nodes() int {
	return totals.Directories + totals.Files
}

// Totals walks the tree and counts directories and files, including the root.
func (result *ScanResult) Totals() TreeTotals {
	totals := TreeTotals{}
	countNodes(result.Root, &totals)
	return totals
}

func countNodes(node *Node, totals *TreeTotals) {
	if node == nil {
		return
	}
	if node.Kind == NodeKindDirectory {
		totals.Directories++
		for _, childNode := range node.Children {
			countNodes(childNode, totals)
		}
		return
	}
	totals.Files++
}

// FindNode locates the node with the given root-relative path within the tree
// rooted at node. An empty relative path returns the node itself. The second
// return value reports whether the node was found.
func FindNode(node *Node, relativePath string) (*Node, bool) {
	if node == nil {
		return nil, false
	}
	if relativePath == "" || relativePath == "." {
		return node, true
	}
	for _, childNode := range node.Children {
		if childNode.Path == relativePath {
			return childNode, true
		}
		if childNode.Kind == NodeKindDirectory && isPathPrefix(childNode.Path, relativePath) {
			return FindNode(childNode, relativePath)
		}
	}
	return nil, false
}

func isPathPrefix(directoryPath, candidatePath string) bool {
	return len(candidatePath) > len(directoryPath) &&
		candidatePath[:len(directoryPath)] == directoryPath &&
		candidatePath[len(directoryPath)] == '/'
}
