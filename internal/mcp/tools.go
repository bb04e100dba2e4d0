package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// userProperties describes the student profile shared by the ranking tools
var userProperties = map[string]any{
	"department": map[string]any{
		"type":        "string",
		"description": "Student's department, e.g. 컴퓨터과학부",
	},
	"grade": map[string]any{
		"type":        "integer",
		"minimum":     0,
		"maximum":     7,
		"description": "Grade code: 1-5 for years, 6 graduate, 7 graduate student, 0 unspecified",
	},
	"interests": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string", "enum": []string{"공모전", "멘토링", "봉사", "취업", "탐방", "특강", "비교과"}},
		"description": "Program categories the student is interested in",
	},
	"interest_fields": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Free-text interest keywords matched against program titles and content",
	},
	"include_closed": map[string]any{
		"type":        "boolean",
		"description": "Include programs whose application deadline has passed (default: false)",
	},
}

func withProperties(base map[string]any, extra map[string]any) map[string]any {
	props := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name:        "recommend_programs",
		Description: "Rank university programs for a student by department, grade, interests and free-text interest fields. Returns the top matches with scores and reasons.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": withProperties(userProperties, map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 5)",
				},
				"min_score": map[string]any{
					"type":        "number",
					"description": "Minimum blended score between 0 and 100 (default: 20)",
				},
			}),
			"required": []string{"department", "grade"},
		},
	},
	{
		Name:        "explain_score",
		Description: "Break down how one program scores for a student: department, grade, interests, deadline and field relevance.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": withProperties(userProperties, map[string]any{
				"program_id": map[string]any{
					"type":        "integer",
					"description": "Program ID",
				},
			}),
			"required": []string{"program_id", "department", "grade"},
		},
	},
	{
		Name:        "list_programs",
		Description: "List stored programs with optional eligibility and category filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"department": map[string]any{
					"type":        "string",
					"description": "Only programs open to this department (or to every department)",
				},
				"grade": map[string]any{
					"type":        "integer",
					"description": "Only programs open to this grade (or to every grade)",
				},
				"categories": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Only programs in any of these categories",
				},
				"source": map[string]any{
					"type":        "string",
					"enum":        []string{"portal", "uostory", "unknown"},
					"description": "Only programs crawled from this source",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Case-insensitive title search",
				},
				"include_closed": map[string]any{
					"type":        "boolean",
					"description": "Include programs whose application deadline has passed (default: false)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 20, max: 200)",
				},
			},
		},
	},
	{
		Name:        "get_program",
		Description: "Get one program with its categories, eligible departments and grades, and application window.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"program_id": map[string]any{
					"type":        "integer",
					"description": "Program ID",
				},
			},
			"required": []string{"program_id"},
		},
	},
	{
		Name:        "find_duplicates",
		Description: "Report groups of programs that describe the same announcement. Nothing is deleted.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "get_stats",
		Description: "Get aggregate counts of stored programs by source, category and deadline state.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}
