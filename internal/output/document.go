// Package output converts scan results to and from their external
// representations: the persisted JSON document and the indented text listing.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"projviz/internal/types"
)

// ErrMalformedDocument indicates that a persisted scan document does not
// match the expected shape. Errors returned by UnmarshalScanResult wrap it.
var ErrMalformedDocument = errors.New("malformed scan document")

const documentIndent = "  "

// scanDocument mirrors the persisted top-level shape exactly. Framework is a
// pointer so the absence of a detection serializes as JSON null.
type scanDocument struct {
	ScannedPath   string        `json:"scanned_path"`
	Framework     *string       `json:"framework"`
	ScanTimestamp string        `json:"scan_timestamp"`
	Root          *nodeDocument `json:"root"`
}

// nodeDocument mirrors the persisted node shape. Size appears only for files.
// Children is a pointer to a slice so that an empty directory serializes as
// an empty array while files omit the field entirely.
type nodeDocument struct {
	Name     string           `json:"name"`
	Path     string           `json:"path"`
	Kind     string           `json:"kind"`
	Size     *int64           `json:"size,omitempty"`
	Children *[]*nodeDocument `json:"children,omitempty"`
}

// MarshalScanResult serializes a scan result into the persisted JSON document.
func MarshalScanResult(result *types.ScanResult) ([]byte, error) {
	if result == nil || result.Root == nil {
		return nil, fmt.Errorf("%w: result has no root node", ErrMalformedDocument)
	}
	document := scanDocument{
		ScannedPath:   result.ScannedPath,
		ScanTimestamp: result.ScanTimestamp.Format(time.RFC3339),
		Root:          nodeToDocument(result.Root),
	}
	if result.Framework != types.FrameworkNone {
		frameworkValue := string(result.Framework)
		document.Framework = &frameworkValue
	}
	return json.MarshalIndent(document, "", documentIndent)
}

// UnmarshalScanResult parses a persisted scan document back into a ScanResult.
// Any missing or ill-shaped field yields an error wrapping ErrMalformedDocument.
func UnmarshalScanResult(data []byte) (*types.ScanResult, error) {
	var document scanDocument
	if decodeError := json.Unmarshal(data, &document); decodeError != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, decodeError)
	}
	if document.ScannedPath == "" {
		return nil, fmt.Errorf("%w: missing scanned_path", ErrMalformedDocument)
	}
	if document.Root == nil {
		return nil, fmt.Errorf("%w: missing root node", ErrMalformedDocument)
	}
	scanTimestamp, timestampError := time.Parse(time.RFC3339, document.ScanTimestamp)
	if timestampError != nil {
		return nil, fmt.Errorf("%w: invalid scan_timestamp %q", ErrMalformedDocument, document.ScanTimestamp)
	}

	framework := types.FrameworkNone
	if document.Framework != nil {
		framework = types.Framework(*document.Framework)
		if !framework.IsValid() || framework == types.FrameworkNone {
			return nil, fmt.Errorf("%w: unknown framework %q", ErrMalformedDocument, *document.Framework)
		}
	}

	rootNode, rootError := documentToNode(document.Root)
	if rootError != nil {
		return nil, rootError
	}
	if rootNode.Kind != types.NodeKindDirectory {
		return nil, fmt.Errorf("%w: root node must be a directory", ErrMalformedDocument)
	}

	return &types.ScanResult{
		Root:          rootNode,
		ScannedPath:   document.ScannedPath,
		Framework:     framework,
		ScanTimestamp: scanTimestamp,
	}, nil
}

// MarshalNode serializes a single node subtree using the persisted node shape.
// The serving layer uses it for subtree responses.
func MarshalNode(node *types.Node) ([]byte, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: null node", ErrMalformedDocument)
	}
	return json.Marshal(nodeToDocument(node))
}

func nodeToDocument(node *types.Node) *nodeDocument {
	document := &nodeDocument{
		Name: node.Name,
		Path: node.Path,
		Kind: string(node.Kind),
	}
	if node.Kind == types.NodeKindFile {
		sizeValue := node.Size
		document.Size = &sizeValue
		return document
	}
	childDocuments := make([]*nodeDocument, 0, len(node.Children))
	for _, childNode := range node.Children {
		childDocuments = append(childDocuments, nodeToDocument(childNode))
	}
	document.Children = &childDocuments
	return document
}

func documentToNode(document *nodeDocument) (*types.Node, error) {
	if document == nil {
		return nil, fmt.Errorf("%w: null node", ErrMalformedDocument)
	}
	if document.Name == "" {
		return nil, fmt.Errorf("%w: node missing name", ErrMalformedDocument)
	}

	switch types.NodeKind(document.Kind) {
	case types.NodeKindFile:
		if document.Children != nil {
			return nil, fmt.Errorf("%w: file node %q carries children", ErrMalformedDocument, document.Name)
		}
		node := &types.Node{
			Name: document.Name,
			Path: document.Path,
			Kind: types.NodeKindFile,
		}
		if document.Size != nil {
			node.Size = *document.Size
		}
		return node, nil
	case types.NodeKindDirectory:
		if document.Size != nil {
			return nil, fmt.Errorf("%w: directory node %q carries a size", ErrMalformedDocument, document.Name)
		}
		if document.Children == nil {
			return nil, fmt.Errorf("%w: directory node %q missing children", ErrMalformedDocument, document.Name)
		}
		node := &types.Node{
			Name:     document.Name,
			Path:     document.Path,
			Kind:     types.NodeKindDirectory,
			Children: make([]*types.Node, 0, len(*document.Children)),
		}
		for _, childDocument := range *document.Children {
			childNode, childError := documentToNode(childDocument)
			if childError != nil {
				return nil, childError
			}
			node.Children = append(node.Children, childNode)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%w: node %q has unknown kind %q", ErrMalformedDocument, document.Name, document.Kind)
	}
}
