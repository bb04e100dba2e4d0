package mcp

import "strings"

// Resource defines an MCP resource
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Resource URIs
const (
	ResourceCategories = "programrank://categories"
	ResourceGrades     = "programrank://grades"
	ResourceSummary    = "programrank://summary"
)

// ResourceDefinitions lists all available resources
var ResourceDefinitions = []Resource{
	{
		URI:         ResourceCategories,
		Name:        "Program Categories",
		Description: "The fixed set of program categories",
		MimeType:    "application/json",
	},
	{
		URI:         ResourceGrades,
		Name:        "Grade Codes",
		Description: "Grade codes 0-7 with their names",
		MimeType:    "application/json",
	},
	{
		URI:         ResourceSummary,
		Name:        "Program Summary",
		Description: "Stored program counts by deadline state, source and category",
		MimeType:    "text/plain",
	},
}

func resourceMimeType(uri string) string {
	for _, r := range ResourceDefinitions {
		if strings.EqualFold(r.URI, uri) {
			return r.MimeType
		}
	}
	return "text/plain"
}

// resourcesListResult is the response for resources/list
type resourcesListResult struct {
	Resources []Resource `json:"resources"`
}

// readResourceParams is the params for resources/read
type readResourceParams struct {
	URI string `json:"uri"`
}

// readResourceResult is the response for resources/read
type readResourceResult struct {
	Contents []resourceContent `json:"contents"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}
