// Package docs registers the OpenAPI document served under /swagger.
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
        "/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Signup data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "User created", "schema": {"$ref": "#/definitions/handlers.UserIDResponse"}},
                    "400": {"description": "Missing username or password", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Username already exists", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/handlers.UserIDResponse"}},
                    "400": {"description": "Missing username or password", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Number of users to skip", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Number of users to return, 0 for all", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Users", "schema": {"type": "array", "items": {"$ref": "#/definitions/user.UserResponse"}}}
                }
            }
        },
        "/users/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "User", "schema": {"$ref": "#/definitions/user.UserResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{userId}/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "List devices",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Devices", "schema": {"type": "array", "items": {"$ref": "#/definitions/user.Device"}}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "Add device",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true},
                    {"description": "Device data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/device.AddDeviceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Device created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Device already exists", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{userId}/devices/{deviceId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "Get device status",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true},
                    {"type": "string", "description": "Device ID", "name": "deviceId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Device status", "schema": {"$ref": "#/definitions/device.Status"}},
                    "404": {"description": "User or device not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Devices"],
                "summary": "Update humidity",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true},
                    {"type": "string", "description": "Device ID", "name": "deviceId", "in": "path", "required": true},
                    {"description": "New humidity", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/device.UpdateHumidityRequest"}}
                ],
                "responses": {
                    "200": {"description": "Humidity updated", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "User or device not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/publish-humidity": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Publish humidity",
                "parameters": [
                    {"description": "Reading", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/device.PublishHumidityRequest"}}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Publish failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "device.AddDeviceRequest": {
            "type": "object",
            "required": ["deviceId"],
            "properties": {
                "deviceId": {"type": "string", "example": "sensor-1"},
                "humidity": {"type": "string", "example": "50"}
            }
        },
        "device.UpdateHumidityRequest": {
            "type": "object",
            "required": ["humidity"],
            "properties": {
                "humidity": {"type": "string", "example": "65"}
            }
        },
        "device.PublishHumidityRequest": {
            "type": "object",
            "required": ["deviceId", "humidity"],
            "properties": {
                "deviceId": {"type": "string", "example": "sensor-1"},
                "humidity": {"type": "string", "example": "65"}
            }
        },
        "device.Status": {
            "type": "object",
            "properties": {
                "deviceId": {"type": "string"},
                "humidity": {"type": "string"},
                "createdAt": {"type": "string"},
                "ageDays": {"type": "integer"},
                "batteryPercent": {"type": "number"}
            }
        },
        "user.Device": {
            "type": "object",
            "properties": {
                "deviceId": {"type": "string"},
                "humidity": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "user.SignupRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "alice"},
                "password": {"type": "string", "example": "secret"}
            }
        },
        "user.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "alice"},
                "password": {"type": "string", "example": "secret"}
            }
        },
        "user.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/user.Device"}},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handlers.UserIDResponse": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "HumidHub API",
	Description:      "Registry of humidity sensing devices with MQTT change notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
