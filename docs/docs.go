// Package docs holds the OpenAPI document served at /docs.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "traktlist"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/lists/{username}/{type}/{list}": {
            "get": {
                "description": "Retrieves a Trakt collection, watchlist, watched list or custom list and returns one entry per matching item with title, url and the kind's id fields.",
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Get normalized list",
                "parameters": [
                    {"type": "string", "description": "Trakt username", "name": "username", "in": "path", "required": true},
                    {"enum": ["movies", "shows", "episodes"], "type": "string", "description": "Item type", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "collection, watchlist, watched, or a custom list name", "name": "list", "in": "path", "required": true},
                    {"type": "boolean", "description": "Drop the trailing (YYYY) from titles", "name": "strip_dates", "in": "query"},
                    {"type": "boolean", "description": "Bypass cached data", "name": "refresh", "in": "query"},
                    {"type": "string", "description": "OAuth token for private lists", "name": "X-Trakt-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "items": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
                "list": {"type": "string"},
                "list_type": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "respond.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/respond.ErrorBody"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Trakt List API",
	Description:      "Normalizes Trakt collections, watchlists, watched lists and custom lists into flat entries with a title, a canonical url and per-kind id fields.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
