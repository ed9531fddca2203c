package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"projviz/internal/types"
)

const (
	// DefaultMaxDepth bounds the recursive descent. Directories below the
	// bound are included as empty nodes instead of overflowing the stack on
	// pathological trees.
	DefaultMaxDepth = 256

	warningUnreadableDirectoryFormat = "permission denied reading %s, including as empty directory"
	warningSkippedSymlinkFormat      = "skipping symlink %s"
	warningDepthExceededFormat       = "maximum depth %d exceeded at %s, not descending"
	warningStatFailedFormat          = "unable to stat %s: %v"
)

// ErrPathNotFound indicates that the scan root does not exist.
var ErrPathNotFound = errors.New("path not found")

// ErrNotADirectory indicates that the scan root exists but is not a directory.
var ErrNotADirectory = errors.New("not a directory")

// Options configures a single scan invocation. The zero value scans with the
// default ignore patterns, the default depth bound, and no callbacks.
type Options struct {
	// IgnorePatterns extends DefaultIgnorePatterns unless DisableDefaultPatterns is set.
	IgnorePatterns []string
	// DisableDefaultPatterns drops the built-in pattern set entirely.
	DisableDefaultPatterns bool
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
	// Warn receives non-fatal traversal diagnostics (skipped symlinks,
	// unreadable directories). May be nil.
	Warn func(message string)
	// Visit is called for every node in final tree order as it is built,
	// with the node's depth relative to the root's children (root children
	// are depth zero). May be nil.
	Visit func(node *types.Node, depth int)
}

type treeWalker struct {
	ignorePatterns []string
	maxDepth       int
	warn           func(message string)
	visit          func(node *types.Node, depth int)
}

// Scan walks rootPath and returns the completed tree with scan metadata.
// The root must exist and be a directory; anything else fails immediately.
// Per-entry failures during traversal degrade to warnings, so a scan of a
// valid root always completes.
func Scan(rootPath string, options Options) (*types.ScanResult, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return nil, fmt.Errorf("resolving %s: %w", rootPath, absoluteError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	rootInformation, statError := os.Stat(absoluteRoot)
	if statError != nil {
		if os.IsNotExist(statError) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, rootPath)
		}
		return nil, fmt.Errorf("stat %s: %w", rootPath, statError)
	}
	if !rootInformation.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, rootPath)
	}

	walker := &treeWalker{
		ignorePatterns: CombineIgnorePatterns(options.IgnorePatterns, options.DisableDefaultPatterns),
		maxDepth:       options.MaxDepth,
		warn:           options.Warn,
		visit:          options.Visit,
	}
	if walker.maxDepth <= 0 {
		walker.maxDepth = DefaultMaxDepth
	}
	if walker.warn == nil {
		walker.warn = func(string) {}
	}

	rootNode := &types.Node{
		Name:     filepath.Base(absoluteRoot),
		Path:     "",
		Kind:     types.NodeKindDirectory,
		Children: []*types.Node{},
	}
	walker.walkDirectory(absoluteRoot, rootNode, 0)

	return &types.ScanResult{
		Root:          rootNode,
		ScannedPath:   absoluteRoot,
		Framework:     DetectFramework(immediateFileNames(rootNode)),
		ScanTimestamp: time.Now().UTC(),
	}, nil
}

// walkDirectory fills node.Children from the entries of absolutePath.
// Failures are reported through the warn callback and leave the node empty.
func (walker *treeWalker) walkDirectory(absolutePath string, node *types.Node, depth int) {
	if depth >= walker.maxDepth {
		walker.warn(fmt.Sprintf(warningDepthExceededFormat, walker.maxDepth, absolutePath))
		return
	}

	directoryEntries, readError := os.ReadDir(absolutePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrPermission) {
			walker.warn(fmt.Sprintf(warningUnreadableDirectoryFormat, absolutePath))
			return
		}
		walker.warn(fmt.Sprintf("reading directory %s: %v", absolutePath, readError))
		return
	}

	acceptedEntries := make([]os.DirEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if ShouldIgnore(directoryEntry.Name(), walker.ignorePatterns) {
			continue
		}
		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			walker.warn(fmt.Sprintf(warningSkippedSymlinkFormat, filepath.Join(absolutePath, directoryEntry.Name())))
			continue
		}
		acceptedEntries = append(acceptedEntries, directoryEntry)
	}
	sortEntries(acceptedEntries)

	for _, directoryEntry := range acceptedEntries {
		entryName := directoryEntry.Name()
		childAbsolutePath := filepath.Join(absolutePath, entryName)
		childRelativePath := joinRelativePath(node.Path, entryName)

		if directoryEntry.IsDir() {
			childNode := &types.Node{
				Name:     entryName,
				Path:     childRelativePath,
				Kind:     types.NodeKindDirectory,
				Children: []*types.Node{},
			}
			node.Children = append(node.Children, childNode)
			if walker.visit != nil {
				walker.visit(childNode, depth)
			}
			walker.walkDirectory(childAbsolutePath, childNode, depth+1)
			continue
		}

		entryInformation, informationError := directoryEntry.Info()
		if informationError != nil {
			walker.warn(fmt.Sprintf(warningStatFailedFormat, childAbsolutePath, informationError))
			continue
		}
		childNode := &types.Node{
			Name: entryName,
			Path: childRelativePath,
			Kind: types.NodeKindFile,
			Size: entryInformation.Size(),
		}
		node.Children = append(node.Children, childNode)
		if walker.visit != nil {
			walker.visit(childNode, depth)
		}
	}
}

// sortEntries orders directories before files, then case-insensitively by
// name within each kind, with a bytewise comparison breaking case ties.
func sortEntries(directoryEntries []os.DirEntry) {
	sort.SliceStable(directoryEntries, func(firstIndex, secondIndex int) bool {
		firstEntry := directoryEntries[firstIndex]
		secondEntry := directoryEntries[secondIndex]
		if firstEntry.IsDir() != secondEntry.IsDir() {
			return firstEntry.IsDir()
		}
		firstFolded := strings.ToLower(firstEntry.Name())
		secondFolded := strings.ToLower(secondEntry.Name())
		if firstFolded != secondFolded {
			return firstFolded < secondFolded
		}
		return firstEntry.Name() < secondEntry.Name()
	})
}

func joinRelativePath(parentPath, entryName string) string {
	if parentPath == "" {
		return entryName
	}
	return parentPath + "/" + entryName
}

// immediateFileNames collects the names of the root's direct file children
// for framework detection.
func immediateFileNames(rootNode *types.Node) []string {
	fileNames := make([]string, 0, len(rootNode.Children))
	for _, childNode := range rootNode.Children {
		if childNode.Kind == types.NodeKindFile {
			fileNames = append(fileNames, childNode.Name)
		}
	}
	return fileNames
}
