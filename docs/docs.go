// Package docs is generated by swaggo/swag; regenerate with `swag init -g cmd/api/main.go`.
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
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}}}},
        "/auth/signin": {"post": {"tags": ["auth"], "summary": "Sign in", "responses": {"200": {"description": "OK"}}}},
        "/auth/signout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Sign out", "responses": {"200": {"description": "OK"}}}},
        "/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current profile", "responses": {"200": {"description": "OK"}}}},
        "/drafts": {"post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Start a draft", "responses": {"201": {"description": "Created"}, "429": {"description": "Too many open drafts"}}}},
        "/drafts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Get a draft", "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Update draft fields", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Discard a draft", "responses": {"200": {"description": "OK"}}}
        },
        "/drafts/{id}/image": {"put": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Attach the photo", "responses": {"200": {"description": "OK"}}}},
        "/drafts/{id}/location": {"put": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Capture the location", "responses": {"200": {"description": "OK"}}}},
        "/drafts/{id}/submit": {"post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Submit a draft", "responses": {"201": {"description": "Created"}}}},
        "/reports": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "List reports", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Report in one request", "responses": {"201": {"description": "Created"}}}
        },
        "/reports/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Get a report", "responses": {"200": {"description": "OK"}}}},
        "/reports/{id}/comments": {"post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Comment on a report", "responses": {"201": {"description": "Created"}}}},
        "/reports/{id}/vote": {"post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Upvote a report", "responses": {"200": {"description": "OK"}}}},
        "/admin/reports": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Moderation list", "responses": {"200": {"description": "OK"}}}},
        "/admin/reports/{id}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Advance a report", "responses": {"200": {"description": "OK"}}}},
        "/rewards": {"get": {"security": [{"BearerAuth": []}], "tags": ["rewards"], "summary": "My rewards", "responses": {"200": {"description": "OK"}}}},
        "/rewards/balance": {"get": {"security": [{"BearerAuth": []}], "tags": ["rewards"], "summary": "Points balance", "responses": {"200": {"description": "OK"}}}},
        "/rewards/redeem": {"post": {"security": [{"BearerAuth": []}], "tags": ["rewards"], "summary": "Redeem points", "responses": {"201": {"description": "Created"}}}},
        "/admin/rewards/{id}/complete": {"patch": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Complete a payout", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer <token>\"",
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
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "RoadWatch API",
	Description:      "Pothole reporting with moderation and UPI rewards",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
