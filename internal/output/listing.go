package output

import (
	"strings"

	"projviz/internal/types"
)

const (
	listingIndentUnit     = "  "
	listingDirectoryToken = "= "
	listingFileToken      = "- "
)

// FormatListingLine renders one listing line for a node at the given depth:
// two spaces of indentation per level, "= " for directories, "- " for files.
func FormatListingLine(node *types.Node, depth int) string {
	prefixToken := listingFileToken
	if node.Kind == types.NodeKindDirectory {
		prefixToken = listingDirectoryToken
	}
	return strings.Repeat(listingIndentUnit, depth) + prefixToken + node.Name
}

// RenderListing produces the human-readable listing of a scan result. The
// root itself is not listed; its children start at indentation zero in the
// same deterministic order the tree stores them.
func RenderListing(result *types.ScanResult) string {
	var builder strings.Builder
	if result != nil && result.Root != nil {
		for _, childNode := range result.Root.Children {
			writeListing(&builder, childNode, 0)
		}
	}
	return builder.String()
}

func writeListing(builder *strings.Builder, node *types.Node, depth int) {
	builder.WriteString(FormatListingLine(node, depth))
	builder.WriteByte('\n')
	for _, childNode := range node.Children {
		writeListing(builder, childNode, depth+1)
	}
}
