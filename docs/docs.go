// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate with: swag init -g cmd/mockapi/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth-status/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Report whether the caller holds a valid session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authStatusResponse"}}
                }
            }
        },
        "/csrf-token/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Fetch a CSRF token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.csrfTokenResponse"}}
                }
            }
        },
        "/login/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Open a session",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoginResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.LoginResult"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.detailResponse"}}
                }
            }
        },
        "/logout/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Close the current session",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.logoutResponse"}}
                }
            }
        },
        "/users/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "description": "Matches username, email, first or last name", "name": "search", "in": "query"},
                    {"type": "string", "description": "client, vendor, financial, technical or admin", "name": "user_type", "in": "query"},
                    {"type": "boolean", "description": "Filter by status", "name": "is_active", "in": "query"},
                    {"type": "string", "description": "Field name, prefix with - for descending", "name": "ordering", "in": "query"},
                    {"type": "integer", "description": "Enables the paginated envelope", "name": "page_size", "in": "query"},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.detailResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a user",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"description": "New user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UserInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}
                }
            }
        },
        "/users/stats/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Aggregate user counts",
                "parameters": [
                    {"type": "boolean", "description": "Include the per-type breakdown", "name": "extended", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserStats"}}
                }
            }
        },
        "/users/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.detailResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Partially update a user",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "Changed fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userPatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.detailResponse"}}
                }
            },
            "delete": {
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.detailResponse"}}
                }
            }
        },
        "/users/{id}/suspend/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Suspend a user and notify them",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        },
        "/users/{id}/activate/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Reactivate a user and notify them",
                "parameters": [
                    {"type": "string", "description": "CSRF token", "name": "X-CSRFToken", "in": "header", "required": true},
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "user_type": {"type": "string", "enum": ["client", "vendor", "financial", "technical", "admin"]},
                "is_active": {"type": "boolean"},
                "last_login": {"type": "string"},
                "date_joined": {"type": "string"}
            }
        },
        "domain.UserInput": {
            "type": "object",
            "required": ["username", "email", "first_name", "last_name", "password", "password_confirm", "user_type"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "password": {"type": "string"},
                "password_confirm": {"type": "string"},
                "user_type": {"type": "string", "enum": ["client", "vendor", "financial", "technical", "admin"]},
                "is_active": {"type": "boolean"}
            }
        },
        "domain.TypeStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "active": {"type": "integer"},
                "new_today": {"type": "integer"},
                "churn_rate": {"type": "string"}
            }
        },
        "domain.UserStats": {
            "type": "object",
            "properties": {
                "total_users": {"type": "integer"},
                "active_users": {"type": "integer"},
                "by_user_type": {"type": "object", "additionalProperties": {"$ref": "#/definitions/domain.TypeStats"}}
            }
        },
        "domain.LoginResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"},
                "error": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.userPatchRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "user_type": {"type": "string"},
                "is_active": {"type": "boolean"},
                "password": {"type": "string"},
                "password_confirm": {"type": "string"}
            }
        },
        "handler.authStatusResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.logoutResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "handler.csrfTokenResponse": {
            "type": "object",
            "properties": {"csrfToken": {"type": "string"}}
        },
        "handler.detailResponse": {
            "type": "object",
            "properties": {"detail": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Marketplace Admin API",
	Description:      "Reference backend for the marketplace admin console data layer.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
