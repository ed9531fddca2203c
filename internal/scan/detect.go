package scan

import (
	"strings"

	"projviz/internal/types"
)

// frameworkRule pairs a framework with the marker file names that imply it.
// A rule with a nameSubstring matches any file whose name contains it.
type frameworkRule struct {
	framework     types.Framework
	markerFiles   []string
	nameSubstring string
}

// frameworkRules is evaluated top to bottom; the first rule whose marker set
// intersects the file-name set wins. The order is a fixed contract: flask is
// listed before fastapi, so a directory containing only app.py classifies as
// flask. Reordering changes classification results.
var frameworkRules = []frameworkRule{
	{framework: types.FrameworkDjango, markerFiles: []string{"manage.py", "settings.py", "wsgi.py", "asgi.py"}},
	{framework: types.FrameworkFlask, markerFiles: []string{"app.py", "application.py", "flask_app.py"}},
	{framework: types.FrameworkFastAPI, markerFiles: []string{"main.py", "app.py", "fastapi_app.py"}},
	{framework: types.FrameworkPyramid, markerFiles: []string{"development.ini", "production.ini"}},
	{framework: types.FrameworkTornado, nameSubstring: "tornado"},
}

// DetectFramework classifies a directory from its immediate file names.
// It returns FrameworkNone when no rule matches.
func DetectFramework(fileNames []string) types.Framework {
	nameSet := make(map[string]struct{}, len(fileNames))
	for _, fileName := range fileNames {
		nameSet[fileName] = struct{}{}
	}
	for _, rule := range frameworkRules {
		for _, markerFile := range rule.markerFiles {
			if _, present := nameSet[markerFile]; present {
				return rule.framework
			}
		}
		if rule.nameSubstring == "" {
			continue
		}
		for _, fileName := range fileNames {
			if strings.Contains(fileName, rule.nameSubstring) {
				return rule.framework
			}
		}
	}
	return types.FrameworkNone
}
