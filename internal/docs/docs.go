// Package docs registers the OpenAPI document served under /api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "bearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Bearer ID token obtained from the landing page."
        }
    },
    "security": [{"bearerAuth": []}],
    "paths": {
        "/users": {
            "get": {
                "summary": "List registered users",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/User"}}},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "406": {"$ref": "#/responses/NotAcceptable"}
                }
            },
            "post": {
                "summary": "Not supported",
                "responses": {"405": {"$ref": "#/responses/MethodNotAllowed"}}
            }
        },
        "/movements": {
            "get": {
                "summary": "List the caller's movements, five per page",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/cursor"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MovementList"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "406": {"$ref": "#/responses/NotAcceptable"}
                }
            },
            "post": {
                "summary": "Create a movement",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MovementInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Movement"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "406": {"$ref": "#/responses/NotAcceptable"},
                    "415": {"$ref": "#/responses/UnsupportedMediaType"}
                }
            }
        },
        "/movements/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {
                "summary": "Get a movement the caller owns",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Movement"}},
                    "403": {"$ref": "#/responses/Forbidden"}
                }
            },
            "put": {
                "summary": "Replace every movement attribute",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MovementInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Movement"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            },
            "patch": {
                "summary": "Update some movement attributes",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MovementInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Movement"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            },
            "delete": {
                "summary": "Delete a movement and remove it from linked exercises",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        },
        "/movements/{id}/exercises/{exercise_id}": {
            "parameters": [{"$ref": "#/parameters/id"}, {"name": "exercise_id", "in": "path", "required": true, "type": "integer"}],
            "put": {
                "summary": "Link a movement and an exercise",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            },
            "delete": {
                "summary": "Unlink a movement and an exercise",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        },
        "/exercises": {
            "get": {
                "summary": "List the caller's exercises, five per page",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/cursor"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ExerciseList"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "401": {"$ref": "#/responses/Unauthorized"}
                }
            },
            "post": {
                "summary": "Create an exercise",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExerciseInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Exercise"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "415": {"$ref": "#/responses/UnsupportedMediaType"}
                }
            }
        },
        "/exercises/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {
                "summary": "Get an exercise the caller owns",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Exercise"}},
                    "403": {"$ref": "#/responses/Forbidden"}
                }
            },
            "put": {
                "summary": "Replace every exercise attribute",
                "consumes": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExerciseInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Exercise"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            },
            "patch": {
                "summary": "Update some exercise attributes",
                "consumes": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExerciseInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Exercise"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            },
            "delete": {
                "summary": "Delete an exercise and remove it from linked movements",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        },
        "/exercises/{id}/movements/{movement_id}": {
            "parameters": [{"$ref": "#/parameters/id"}, {"name": "movement_id", "in": "path", "required": true, "type": "integer"}],
            "put": {
                "summary": "Link an exercise and a movement",
                "responses": {"204": {"description": "No Content"}, "404": {"$ref": "#/responses/NotFound"}}
            },
            "delete": {
                "summary": "Unlink an exercise and a movement",
                "responses": {"204": {"description": "No Content"}, "404": {"$ref": "#/responses/NotFound"}}
            }
        }
    },
    "parameters": {
        "id": {"name": "id", "in": "path", "required": true, "type": "integer"},
        "cursor": {"name": "cursor", "in": "query", "required": false, "type": "string"}
    },
    "responses": {
        "BadRequest": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
        "Unauthorized": {"description": "Invalid Token", "schema": {"$ref": "#/definitions/Error"}},
        "Forbidden": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Error"}},
        "NotFound": {"description": "Not Found", "schema": {"$ref": "#/definitions/Error"}},
        "MethodNotAllowed": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/Error"}},
        "NotAcceptable": {"description": "Not Acceptable", "schema": {"$ref": "#/definitions/Error"}},
        "UnsupportedMediaType": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/Error"}}
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"Error": {"type": "string"}}},
        "Link": {"type": "object", "properties": {"id": {"type": "integer"}, "self": {"type": "string"}}},
        "MovementInput": {
            "type": "object",
            "properties": {"movement_name": {"type": "string"}, "coaching_tips": {"type": "string"}}
        },
        "Movement": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "movement_name": {"type": "string"},
                "coaching_tips": {"type": "string"},
                "exercises": {"type": "array", "items": {"$ref": "#/definitions/Link"}},
                "created_by": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "self": {"type": "string"}
            }
        },
        "MovementList": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "movements": {"type": "array", "items": {"$ref": "#/definitions/Movement"}},
                "next": {"type": "string"}
            }
        },
        "ExerciseInput": {
            "type": "object",
            "properties": {
                "exercise_name": {"type": "string"},
                "video_links": {"type": "array", "items": {"type": "string"}},
                "reference_links": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Exercise": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "exercise_name": {"type": "string"},
                "video_links": {"type": "array", "items": {"type": "string"}},
                "reference_links": {"type": "array", "items": {"type": "string"}},
                "movements": {"type": "array", "items": {"$ref": "#/definitions/Link"}},
                "created_by": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "self": {"type": "string"}
            }
        },
        "ExerciseList": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "exercises": {"type": "array", "items": {"$ref": "#/definitions/Exercise"}},
                "next": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "user_email": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "REST Between Sets API",
	Description:      "Movements, exercises and the links between them, scoped to the signed-in user.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
