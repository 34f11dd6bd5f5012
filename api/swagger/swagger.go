package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "QBank Admin API",
        "description": "Question search filters, presets and workspaces for the question bank admin dashboard.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Authentication", "description": "Caller identity and development tokens"},
        {"name": "Filters", "description": "Filter defaults and URL query codec"},
        {"name": "Questions", "description": "Question search and export"},
        {"name": "Presets", "description": "Saved filter presets per admin user"},
        {"name": "Workspaces", "description": "Server-side filter sessions with debounced search"},
        {"name": "Metrics", "description": "Service instrumentation"}
    ],
    "paths": {
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/dev-token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Issue a development access token",
                "description": "Only available when ENV=development.",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueTokenRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/defaults": {
            "get": {
                "tags": ["Filters"],
                "summary": "Default filter state, page sizes and recognised query keys",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/encode": {
            "post": {
                "tags": ["Filters"],
                "summary": "Encode filters as a canonical query string",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/FilterState"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/decode": {
            "get": {
                "tags": ["Filters"],
                "summary": "Decode a query string into filters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/questions/search": {
            "get": {
                "tags": ["Questions"],
                "summary": "Search questions with URL-encoded filters",
                "parameters": [
                    {"name": "questionType", "in": "query", "type": "string"},
                    {"name": "difficultyLevels", "in": "query", "type": "string", "description": "Comma separated"},
                    {"name": "subjectId", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Questions"],
                "summary": "Search questions with a filter body",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/FilterState"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/questions/export": {
            "get": {
                "tags": ["Questions"],
                "summary": "Export the current search page",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/questions/cache": {
            "delete": {
                "tags": ["Questions"],
                "summary": "Drop cached search pages (SUPERADMIN)",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/presets": {
            "get": {
                "tags": ["Presets"],
                "summary": "List presets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Presets"],
                "summary": "Save the given filters as a new preset",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SavePresetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Limit reached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Presets"],
                "summary": "Delete every preset",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/presets/stats": {
            "get": {
                "tags": ["Presets"],
                "summary": "Preset collection statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/presets/export": {
            "get": {
                "tags": ["Presets"],
                "summary": "Download presets as JSON",
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/presets/import": {
            "post": {
                "tags": ["Presets"],
                "summary": "Import presets from an exported file",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": false}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/presets/{id}": {
            "get": {
                "tags": ["Presets"],
                "summary": "Get a preset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Presets"],
                "summary": "Replace the filters of a preset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePresetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Presets"],
                "summary": "Delete a preset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/presets/{id}/name": {
            "patch": {
                "tags": ["Presets"],
                "summary": "Rename a preset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/presets/{id}/duplicate": {
            "post": {
                "tags": ["Presets"],
                "summary": "Copy a preset under a new name",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workspaces": {
            "post": {
                "tags": ["Workspaces"],
                "summary": "Open a workspace",
                "description": "Filter keys in the query string seed the workspace.",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workspaces/{id}": {
            "get": {
                "tags": ["Workspaces"],
                "summary": "Get a workspace with its latest result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Workspaces"],
                "summary": "Close a workspace",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/workspaces/{id}/sections/{section}": {
            "patch": {
                "tags": ["Workspaces"],
                "summary": "Merge a partial update into one filter section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "section", "in": "path", "required": true, "type": "string",
                     "enum": ["basic", "academic", "examSuitability", "previouslyAsked", "searchDate"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid section or patch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workspaces/{id}/reset": {
            "post": {
                "tags": ["Workspaces"],
                "summary": "Restore default filters",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workspaces/{id}/presets": {
            "post": {
                "tags": ["Workspaces"],
                "summary": "Save the workspace filters as a preset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workspaces/{id}/presets/{presetId}/apply": {
            "post": {
                "tags": ["Workspaces"],
                "summary": "Load a preset into the workspace",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "presetId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Service metrics summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FilterState": {
            "type": "object",
            "properties": {
                "basic": {
                    "type": "object",
                    "properties": {
                        "isActive": {"type": "boolean"},
                        "questionType": {"type": "string"},
                        "difficultyLevels": {"type": "array", "items": {"type": "string"}},
                        "minMarks": {"type": "integer"},
                        "maxMarks": {"type": "integer"}
                    }
                },
                "academic": {
                    "type": "object",
                    "properties": {
                        "courseTypeId": {"type": "integer"},
                        "relationshipId": {"type": "integer"},
                        "subjectId": {"type": "integer"},
                        "topicId": {"type": "integer"},
                        "moduleId": {"type": "integer"},
                        "chapterId": {"type": "integer"}
                    }
                },
                "examSuitability": {
                    "type": "object",
                    "properties": {
                        "examIds": {"type": "array", "items": {"type": "integer"}},
                        "suitabilityLevels": {"type": "array", "items": {"type": "string"}},
                        "examTypes": {"type": "array", "items": {"type": "string"}},
                        "conductingBodies": {"type": "array", "items": {"type": "integer"}}
                    }
                },
                "previouslyAsked": {
                    "type": "object",
                    "properties": {
                        "examIds": {"type": "array", "items": {"type": "integer"}},
                        "appearedYears": {"type": "array", "items": {"type": "integer"}},
                        "sessions": {"type": "array", "items": {"type": "string"}},
                        "minMarksInExam": {"type": "integer"},
                        "maxMarksInExam": {"type": "integer"},
                        "questionNumbers": {"type": "array", "items": {"type": "string"}}
                    }
                },
                "searchDate": {
                    "type": "object",
                    "properties": {
                        "questionTextSearch": {"type": "string"},
                        "explanationSearch": {"type": "string"},
                        "dateFrom": {"type": "string", "format": "date"},
                        "dateTo": {"type": "string", "format": "date"},
                        "page": {"type": "integer"},
                        "size": {"type": "integer"}
                    }
                }
            }
        },
        "SavePresetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "filters": {"$ref": "#/definitions/FilterState"}
            },
            "required": ["name"]
        },
        "UpdatePresetRequest": {
            "type": "object",
            "properties": {
                "filters": {"$ref": "#/definitions/FilterState"}
            }
        },
        "NameRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100}
            },
            "required": ["name"]
        },
        "IssueTokenRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "role": {"type": "string", "enum": ["SUPERADMIN", "ADMIN", "CONTENT_MANAGER"]},
                "email": {"type": "string"},
                "fullName": {"type": "string"}
            },
            "required": ["userId", "role"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
