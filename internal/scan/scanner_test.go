package scan_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"projviz/internal/scan"
	"projviz/internal/types"
)

const fixtureFileContent = "hello"

// buildFixtureTree creates a directory layout exercising ordering, ignore
// pruning, and nested paths:
//
//	root/
//	  .git/config          (pruned)
//	  app/main.py
//	  Zeta/
//	  beta.txt
//	  Alpha.txt
//	  app.py
func buildFixtureTree(testingHandle *testing.T) string {
	rootDirectory := testingHandle.TempDir()
	mustMkdir(testingHandle, filepath.Join(rootDirectory, ".git"))
	mustWrite(testingHandle, filepath.Join(rootDirectory, ".git", "config"), "x")
	mustMkdir(testingHandle, filepath.Join(rootDirectory, "app"))
	mustWrite(testingHandle, filepath.Join(rootDirectory, "app", "main.py"), fixtureFileContent)
	mustMkdir(testingHandle, filepath.Join(rootDirectory, "Zeta"))
	mustWrite(testingHandle, filepath.Join(rootDirectory, "beta.txt"), fixtureFileContent)
	mustWrite(testingHandle, filepath.Join(rootDirectory, "Alpha.txt"), fixtureFileContent)
	mustWrite(testingHandle, filepath.Join(rootDirectory, "app.py"), fixtureFileContent)
	return rootDirectory
}

func mustMkdir(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(directoryPath, 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir %s: %v", directoryPath, makeDirError)
	}
}

func mustWrite(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("write %s: %v", filePath, writeError)
	}
}

func childNames(node *types.Node) []string {
	names := make([]string, 0, len(node.Children))
	for _, childNode := range node.Children {
		names = append(names, childNode.Name)
	}
	return names
}

// TestScanOrderingAndExclusion verifies directories-first case-insensitive
// ordering and that ignored entries never appear.
func TestScanOrderingAndExclusion(testingHandle *testing.T) {
	rootDirectory := buildFixtureTree(testingHandle)

	result, scanError := scan.Scan(rootDirectory, scan.Options{})
	if scanError != nil {
		testingHandle.Fatalf("Scan error: %v", scanError)
	}

	expectedOrder := []string{"app", "Zeta", "Alpha.txt", "app.py", "beta.txt"}
	actualOrder := childNames(result.Root)
	if strings.Join(actualOrder, ",") != strings.Join(expectedOrder, ",") {
		testingHandle.Fatalf("root children order = %v, expected %v", actualOrder, expectedOrder)
	}

	for _, childNode := range result.Root.Children {
		if childNode.Name == ".git" {
			testingHandle.Fatalf("ignored directory .git appeared in tree")
		}
	}

	firstDirectory := result.Root.Children[0]
	if firstDirectory.Kind != types.NodeKindDirectory || firstDirectory.Path != "app" {
		testingHandle.Fatalf("unexpected first child: %+v", firstDirectory)
	}
	if len(firstDirectory.Children) != 1 || firstDirectory.Children[0].Path != "app/main.py" {
		testingHandle.Fatalf("unexpected app children: %v", childNames(firstDirectory))
	}
	nestedFile := firstDirectory.Children[0]
	if nestedFile.Kind != types.NodeKindFile || nestedFile.Size != int64(len(fixtureFileContent)) {
		testingHandle.Fatalf("unexpected nested file node: %+v", nestedFile)
	}

	emptyDirectory := result.Root.Children[1]
	if emptyDirectory.Children == nil || len(emptyDirectory.Children) != 0 {
		testingHandle.Fatalf("empty directory should carry an empty children slice: %+v", emptyDirectory)
	}
}

// TestScanFrameworkAttachment verifies the detector runs over the root's
// immediate files: app.py at root classifies the project as flask.
func TestScanFrameworkAttachment(testingHandle *testing.T) {
	rootDirectory := buildFixtureTree(testingHandle)

	result, scanError := scan.Scan(rootDirectory, scan.Options{})
	if scanError != nil {
		testingHandle.Fatalf("Scan error: %v", scanError)
	}
	if result.Framework != types.FrameworkFlask {
		testingHandle.Fatalf("framework = %q, expected flask", result.Framework)
	}
	if result.ScannedPath == "" || !filepath.IsAbs(result.ScannedPath) {
		testingHandle.Fatalf("scanned path should be absolute, got %q", result.ScannedPath)
	}
	if result.ScanTimestamp.IsZero() {
		testingHandle.Fatalf("scan timestamp not set")
	}
}

// TestScanRootErrors verifies fatal errors for invalid roots.
func TestScanRootErrors(testingHandle *testing.T) {
	_, missingError := scan.Scan(filepath.Join(testingHandle.TempDir(), "does-not-exist"), scan.Options{})
	if !errors.Is(missingError, scan.ErrPathNotFound) {
		testingHandle.Fatalf("expected ErrPathNotFound, got %v", missingError)
	}

	rootDirectory := testingHandle.TempDir()
	filePath := filepath.Join(rootDirectory, "plain.txt")
	mustWrite(testingHandle, filePath, "x")
	_, notDirectoryError := scan.Scan(filePath, scan.Options{})
	if !errors.Is(notDirectoryError, scan.ErrNotADirectory) {
		testingHandle.Fatalf("expected ErrNotADirectory, got %v", notDirectoryError)
	}
}

// TestScanSymlinkCycleSafety verifies that a symlink pointing at an ancestor
// is excluded with a warning instead of recursing forever.
func TestScanSymlinkCycleSafety(testingHandle *testing.T) {
	if runtime.GOOS == "windows" {
		testingHandle.Skip("symlink creation requires elevated privileges on windows")
	}
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	mustMkdir(testingHandle, nestedDirectory)
	if symlinkError := os.Symlink(rootDirectory, filepath.Join(nestedDirectory, "loop")); symlinkError != nil {
		testingHandle.Skipf("cannot create symlink: %v", symlinkError)
	}

	var warnings []string
	result, scanError := scan.Scan(rootDirectory, scan.Options{
		Warn: func(message string) { warnings = append(warnings, message) },
	})
	if scanError != nil {
		testingHandle.Fatalf("Scan error: %v", scanError)
	}

	nestedNode := result.Root.Children[0]
	if len(nestedNode.Children) != 0 {
		testingHandle.Fatalf("symlink should be excluded, got children %v", childNames(nestedNode))
	}
	foundWarning := false
	for _, warning := range warnings {
		if strings.Contains(warning, "symlink") {
			foundWarning = true
		}
	}
	if !foundWarning {
		testingHandle.Fatalf("expected a symlink warning, got %v", warnings)
	}
}

// TestScanUnreadableDirectory verifies the unreadable-subdirectory policy:
// included as an empty directory node plus a warning.
func TestScanUnreadableDirectory(testingHandle *testing.T) {
	if runtime.GOOS == "windows" {
		testingHandle.Skip("permission bits are not enforced the same way on windows")
	}
	if os.Geteuid() == 0 {
		testingHandle.Skip("running as root, permission errors are not raised")
	}
	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	mustMkdir(testingHandle, lockedDirectory)
	mustWrite(testingHandle, filepath.Join(lockedDirectory, "secret.txt"), "x")
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	var warnings []string
	result, scanError := scan.Scan(rootDirectory, scan.Options{
		Warn: func(message string) { warnings = append(warnings, message) },
	})
	if scanError != nil {
		testingHandle.Fatalf("scan should complete despite unreadable entry: %v", scanError)
	}

	if len(result.Root.Children) != 1 {
		testingHandle.Fatalf("expected locked directory to remain in tree, got %v", childNames(result.Root))
	}
	lockedNode := result.Root.Children[0]
	if lockedNode.Kind != types.NodeKindDirectory || len(lockedNode.Children) != 0 {
		testingHandle.Fatalf("expected empty directory node, got %+v", lockedNode)
	}
	if len(warnings) == 0 {
		testingHandle.Fatalf("expected a permission warning")
	}
}

// TestScanDeterminism verifies two scans of an unchanged tree produce
// structurally identical results.
func TestScanDeterminism(testingHandle *testing.T) {
	rootDirectory := buildFixtureTree(testingHandle)

	firstResult, firstError := scan.Scan(rootDirectory, scan.Options{})
	secondResult, secondError := scan.Scan(rootDirectory, scan.Options{})
	if firstError != nil || secondError != nil {
		testingHandle.Fatalf("scan errors: %v %v", firstError, secondError)
	}
	if !nodesEqual(firstResult.Root, secondResult.Root) {
		testingHandle.Fatalf("consecutive scans differ")
	}
}

func nodesEqual(firstNode, secondNode *types.Node) bool {
	if firstNode.Name != secondNode.Name ||
		firstNode.Path != secondNode.Path ||
		firstNode.Kind != secondNode.Kind ||
		firstNode.Size != secondNode.Size ||
		len(firstNode.Children) != len(secondNode.Children) {
		return false
	}
	for childIndex := range firstNode.Children {
		if !nodesEqual(firstNode.Children[childIndex], secondNode.Children[childIndex]) {
			return false
		}
	}
	return true
}

// TestScanVisitOrder verifies the Visit callback fires in final tree order
// with root children at depth zero.
func TestScanVisitOrder(testingHandle *testing.T) {
	rootDirectory := buildFixtureTree(testingHandle)

	type visitRecord struct {
		path  string
		depth int
	}
	var visits []visitRecord
	_, scanError := scan.Scan(rootDirectory, scan.Options{
		Visit: func(node *types.Node, depth int) {
			visits = append(visits, visitRecord{path: node.Path, depth: depth})
		},
	})
	if scanError != nil {
		testingHandle.Fatalf("Scan error: %v", scanError)
	}

	expectedVisits := []visitRecord{
		{path: "app", depth: 0},
		{path: "app/main.py", depth: 1},
		{path: "Zeta", depth: 0},
		{path: "Alpha.txt", depth: 0},
		{path: "app.py", depth: 0},
		{path: "beta.txt", depth: 0},
	}
	if len(visits) != len(expectedVisits) {
		testingHandle.Fatalf("visit count = %d, expected %d: %v", len(visits), len(expectedVisits), visits)
	}
	for visitIndex := range expectedVisits {
		if visits[visitIndex] != expectedVisits[visitIndex] {
			testingHandle.Fatalf("visit %d = %+v, expected %+v", visitIndex, visits[visitIndex], expectedVisits[visitIndex])
		}
	}
}

// TestScanMaxDepth verifies the depth bound leaves deep directories empty.
func TestScanMaxDepth(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	deepPath := filepath.Join(rootDirectory, "level1", "level2", "level3")
	mustMkdir(testingHandle, deepPath)
	mustWrite(testingHandle, filepath.Join(deepPath, "deep.txt"), "x")

	var warnings []string
	result, scanError := scan.Scan(rootDirectory, scan.Options{
		MaxDepth: 2,
		Warn:     func(message string) { warnings = append(warnings, message) },
	})
	if scanError != nil {
		testingHandle.Fatalf("Scan error: %v", scanError)
	}

	level1 := result.Root.Children[0]
	level2 := level1.Children[0]
	if len(level2.Children) != 0 {
		testingHandle.Fatalf("expected traversal to stop at depth bound, got %v", childNames(level2))
	}
	if len(warnings) == 0 {
		testingHandle.Fatalf("expected a depth warning")
	}
}
