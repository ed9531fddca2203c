package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"projviz/internal/output"
	"projviz/internal/types"
	"projviz/internal/utils"
)

const (
	headerContentType = "Content-Type"
	mimeTypeJSON      = "application/json"

	errorMissingPathParameter = "missing path parameter"
	errorPathOutsideRoot      = "path outside project root"
	errorNodeNotFound         = "node not found"
	errorFileNotFound         = "file not found"
)

// metadataResponse summarizes the loaded scan for the UI header.
type metadataResponse struct {
	ProjectName   string  `json:"project_name"`
	ScannedPath   string  `json:"scanned_path"`
	Framework     *string `json:"framework"`
	ScanTimestamp string  `json:"scan_timestamp"`
	Directories   int     `json:"directories"`
	Files         int     `json:"files"`
}

// filePreviewResponse carries truncated file content plus decoding metadata.
type filePreviewResponse struct {
	Path      string `json:"path"`
	Encoding  string `json:"encoding"`
	MimeType  string `json:"mime_type"`
	Binary    bool   `json:"binary"`
	Truncated bool   `json:"truncated"`
	Size      int64  `json:"size"`
	Content   string `json:"content"`
}

func (server *Server) handleHealth(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("ok"))
}

// handleTree returns the root node, or the subtree selected by the optional
// root-relative path query parameter for lazy loading of large trees.
func (server *Server) handleTree(writer http.ResponseWriter, request *http.Request) {
	relativePath := normalizeRelativePath(request.URL.Query().Get("path"))
	node, found := types.FindNode(server.result.Root, relativePath)
	if !found {
		server.writeError(writer, http.StatusNotFound, errorNodeNotFound)
		return
	}
	payload, marshalError := output.MarshalNode(node)
	if marshalError != nil {
		server.writeError(writer, http.StatusInternalServerError, marshalError.Error())
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(payload)
}

func (server *Server) handleMetadata(writer http.ResponseWriter, _ *http.Request) {
	totals := server.result.Totals()
	response := metadataResponse{
		ProjectName:   server.result.Root.Name,
		ScannedPath:   server.result.ScannedPath,
		ScanTimestamp: server.result.ScanTimestamp.Format(time.RFC3339),
		Directories:   totals.Directories,
		Files:         totals.Files,
	}
	if server.result.Framework != types.FrameworkNone {
		frameworkValue := string(server.result.Framework)
		response.Framework = &frameworkValue
	}
	server.writeJSON(writer, http.StatusOK, response)
}

// handleFile returns the text content of one file inside the scanned root.
// Content beyond the configured preview limit is truncated.
func (server *Server) handleFile(writer http.ResponseWriter, request *http.Request) {
	requestedPath := strings.TrimSpace(request.URL.Query().Get("path"))
	if requestedPath == "" {
		server.writeError(writer, http.StatusBadRequest, errorMissingPathParameter)
		return
	}

	relativePath := normalizeRelativePath(requestedPath)
	targetPath, resolveOK := server.resolveWithinRoot(relativePath)
	if !resolveOK {
		server.writeError(writer, http.StatusForbidden, errorPathOutsideRoot)
		return
	}

	targetInformation, statError := os.Stat(targetPath)
	if statError != nil || targetInformation.IsDir() {
		server.writeError(writer, http.StatusNotFound, errorFileNotFound)
		return
	}

	fileHandle, openError := os.Open(targetPath)
	if openError != nil {
		server.writeError(writer, http.StatusInternalServerError, openError.Error())
		return
	}
	defer func() { _ = fileHandle.Close() }()

	limitedData, readError := io.ReadAll(io.LimitReader(fileHandle, server.config.PreviewMaxBytes))
	if readError != nil {
		server.writeError(writer, http.StatusInternalServerError, readError.Error())
		return
	}

	content, encoding := utils.DecodeTextContent(limitedData)
	server.writeJSON(writer, http.StatusOK, filePreviewResponse{
		Path:      relativePath,
		Encoding:  encoding,
		MimeType:  utils.DetectContentType(limitedData),
		Binary:    utils.IsBinaryContent(limitedData),
		Truncated: targetInformation.Size() > server.config.PreviewMaxBytes,
		Size:      targetInformation.Size(),
		Content:   content,
	})
}

// resolveWithinRoot joins a root-relative path onto the scanned root and
// rejects any result that escapes it.
func (server *Server) resolveWithinRoot(relativePath string) (string, bool) {
	rootDirectory := server.result.ScannedPath
	targetPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	relativeCheck, relativeError := filepath.Rel(rootDirectory, targetPath)
	if relativeError != nil {
		return "", false
	}
	if relativeCheck == ".." || strings.HasPrefix(relativeCheck, ".."+string(filepath.Separator)) {
		return "", false
	}
	return targetPath, true
}

// normalizeRelativePath cleans a query-supplied path into the root-relative,
// forward-slash form used by node paths.
func normalizeRelativePath(rawPath string) string {
	cleaned := path.Clean("/" + filepath.ToSlash(strings.TrimSpace(rawPath)))
	return strings.TrimPrefix(cleaned, "/")
}

func (server *Server) writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	if encodeError := json.NewEncoder(writer).Encode(payload); encodeError != nil {
		server.logger.Warn("encoding response", zap.Error(encodeError))
	}
}

func (server *Server) writeError(writer http.ResponseWriter, statusCode int, message string) {
	server.writeJSON(writer, statusCode, map[string]string{"error": message})
}
