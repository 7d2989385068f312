// Package docs registers the OpenAPI document served by the Swagger UI.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Check if the API is running and the database is reachable",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Find a user by email",
                "parameters": [
                    {"type": "string", "description": "Email address", "name": "email", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.UserDTO"}},
                    "400": {"description": "Missing email", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Name and password change only when present. Email cannot change.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update the authenticated user's profile",
                "parameters": [
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.UserPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.UserDTO"}},
                    "400": {"description": "Invalid request body or password", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Create a user with optional addresses and phones. The response carries assigned identifiers.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User to register", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.UserDTO"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.UserDTO"}},
                    "400": {"description": "Invalid request or validation error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "description": "Authenticate with email and password and receive a bearer token valid for one hour",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.AuthTokens"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/addresses": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["addresses"],
                "summary": "Update an address",
                "parameters": [
                    {"type": "integer", "description": "Address ID", "name": "id", "in": "query", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.AddressPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.AddressDTO"}},
                    "400": {"description": "Invalid ID or body", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "Address not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["addresses"],
                "summary": "Add an address",
                "parameters": [
                    {"description": "Address", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.AddressDTO"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.AddressDTO"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/phones": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["phones"],
                "summary": "Update a phone",
                "parameters": [
                    {"type": "integer", "description": "Phone ID", "name": "id", "in": "query", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.PhonePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.PhoneDTO"}},
                    "400": {"description": "Invalid ID or body", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "Phone not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["phones"],
                "summary": "Add a phone",
                "parameters": [
                    {"description": "Phone", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.PhoneDTO"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.PhoneDTO"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/{email}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes the user with its addresses and phones. Unknown emails succeed.",
                "tags": ["users"],
                "summary": "Delete a user by email",
                "parameters": [
                    {"type": "string", "description": "Email address", "name": "email", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "auth.AuthTokens": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "authorization": {"type": "string"},
                "expires_in": {"type": "integer"},
                "token_type": {"type": "string"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "httputil.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "user.AddressDTO": {
            "type": "object",
            "properties": {
                "city": {"type": "string"},
                "complement": {"type": "string"},
                "id": {"type": "integer"},
                "number": {"type": "string"},
                "postal_code": {"type": "string"},
                "state": {"type": "string"},
                "street": {"type": "string"}
            }
        },
        "user.AddressPatch": {
            "type": "object",
            "properties": {
                "city": {"type": "string"},
                "complement": {"type": "string"},
                "number": {"type": "string"},
                "postal_code": {"type": "string"},
                "state": {"type": "string"},
                "street": {"type": "string"}
            }
        },
        "user.PhoneDTO": {
            "type": "object",
            "properties": {
                "area_code": {"type": "string"},
                "id": {"type": "integer"},
                "number": {"type": "string"}
            }
        },
        "user.PhonePatch": {
            "type": "object",
            "properties": {
                "area_code": {"type": "string"},
                "number": {"type": "string"}
            }
        },
        "user.UserDTO": {
            "type": "object",
            "properties": {
                "addresses": {"type": "array", "items": {"$ref": "#/definitions/user.AddressDTO"}},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "password": {"type": "string"},
                "phones": {"type": "array", "items": {"$ref": "#/definitions/user.PhoneDTO"}}
            }
        },
        "user.UserPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Identity API",
	Description:      "User identity records with bearer token authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
