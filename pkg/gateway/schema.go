package gateway

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// compileSchema builds a JSON schema used to validate method parameters
// before they reach a handler. Panics on a malformed schema definition;
// schemas are package constants, not runtime input.
func compileSchema(definition map[string]interface{}) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid method schema: %v", err))
	}
	return schema
}

// validateParams checks params against a method schema and folds any
// violations into a single InvalidParams error.
func validateParams(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return &RPCError{Code: InvalidParams, Message: fmt.Sprintf("parameter validation failed: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var issues []string
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &RPCError{Code: InvalidParams, Message: "invalid parameters", Data: strings.Join(issues, "; ")}
}

var (
	createMemorySchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content":              map[string]interface{}{"type": "string", "minLength": 1},
			"summary":              map[string]interface{}{"type": "string"},
			"type":                 map[string]interface{}{"type": "string", "enum": []string{"auto", "user", "conversation"}},
			"tags":                 map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"importance":           map[string]interface{}{"type": "integer"},
			"isPinned":             map[string]interface{}{"type": "boolean"},
			"sourceConversationId": map[string]interface{}{"type": "string"},
			"sourceMessageIds":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"metadata":             map[string]interface{}{"type": "object"},
			"generateEmbedding":    map[string]interface{}{"type": "boolean"},
		},
	})

	memoryIDSchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "minLength": 1},
		},
	})

	updateMemorySchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "string", "minLength": 1},
			"content":    map[string]interface{}{"type": "string"},
			"summary":    map[string]interface{}{"type": "string"},
			"tags":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"importance": map[string]interface{}{"type": "integer"},
			"isPinned":   map[string]interface{}{"type": "boolean"},
			"metadata":   map[string]interface{}{"type": "object"},
		},
	})

	listMemoriesSchema = compileSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"type":     map[string]interface{}{"type": "string", "enum": []string{"auto", "user", "conversation", "pinned"}},
			"isPinned": map[string]interface{}{"type": "boolean"},
			"limit":    map[string]interface{}{"type": "integer", "minimum": 0},
			"offset":   map[string]interface{}{"type": "integer", "minimum": 0},
			"sortBy":   map[string]interface{}{"type": "string", "enum": []string{"importance", "accessed", "created"}},
		},
	})

	searchMemoriesSchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query":            map[string]interface{}{"type": "string", "minLength": 1},
			"limit":            map[string]interface{}{"type": "integer", "minimum": 1},
			"threshold":        map[string]interface{}{"type": "number"},
			"includeEmbedding": map[string]interface{}{"type": "boolean"},
		},
	})

	relevantMemoriesSchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"context"},
		"properties": map[string]interface{}{
			"context": map[string]interface{}{"type": "string", "minLength": 1},
			"limit":   map[string]interface{}{"type": "integer", "minimum": 1},
		},
	})

	extractMemoriesSchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"conversationId", "messages"},
		"properties": map[string]interface{}{
			"conversationId": map[string]interface{}{"type": "string", "minLength": 1},
			"messages": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"role", "content"},
					"properties": map[string]interface{}{
						"role":    map[string]interface{}{"type": "string"},
						"content": map[string]interface{}{"type": "string"},
					},
				},
			},
			"model": map[string]interface{}{"type": "string"},
		},
	})

	updateSettingsSchema = compileSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"autoExtractEnabled":    map[string]interface{}{"type": "boolean"},
			"extractionModel":       map[string]interface{}{"type": "string"},
			"embeddingModel":        map[string]interface{}{"type": "string"},
			"maxMemories":           map[string]interface{}{"type": "integer", "minimum": 1},
			"contextInjectionCount": map[string]interface{}{"type": "integer", "minimum": 0},
			"similarityThreshold":   map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
		},
	})

	setWorkspaceSchema = compileSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"path"},
		"properties": map[string]interface{}{
			"path": map[string]interface{}{"type": "string", "minLength": 1},
		},
	})
)
