package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Canvas Pulse API",
        "description": "Teacher-facing gateway for the Canvas monitoring workflow backend",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Course list and sync cascade"},
        {"name": "Roster", "description": "Merged per-course student roster"},
        {"name": "Compose", "description": "Contact-student and reminder compose sessions"},
        {"name": "Profile", "description": "Canvas token status and storage"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "Teacher's course list with sync metadata",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/refresh": {
            "post": {
                "tags": ["Courses"],
                "summary": "Trigger a manual course sync",
                "responses": {
                    "202": {"description": "Cascade started", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Sync already in flight", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/roster": {
            "get": {
                "tags": ["Roster"],
                "summary": "Merged student roster for a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "type": "string", "required": true},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["name", "last_activity"]},
                    {"name": "direction", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "toggle", "in": "query", "type": "string", "enum": ["name", "last_activity"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/roster/export": {
            "get": {
                "tags": ["Roster"],
                "summary": "Download the course roster as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "direction", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/compose/contact": {
            "post": {
                "tags": ["Compose"],
                "summary": "Open a contact-student compose session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenContactRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compose/reminder": {
            "post": {
                "tags": ["Compose"],
                "summary": "Open an assignment-reminder compose session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenReminderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compose/{sessionId}": {
            "get": {
                "tags": ["Compose"],
                "summary": "Fetch a compose session",
                "parameters": [
                    {"name": "sessionId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Compose"],
                "summary": "Discard a compose session without sending",
                "parameters": [
                    {"name": "sessionId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Discarded"}
                }
            }
        },
        "/compose/{sessionId}/regenerate": {
            "post": {
                "tags": ["Compose"],
                "summary": "Regenerate the session draft with its original context",
                "parameters": [
                    {"name": "sessionId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not editable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compose/{sessionId}/draft": {
            "put": {
                "tags": ["Compose"],
                "summary": "Replace the session's subject and body",
                "parameters": [
                    {"name": "sessionId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDraftRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compose/{sessionId}/send": {
            "post": {
                "tags": ["Compose"],
                "summary": "Send the session draft",
                "parameters": [
                    {"name": "sessionId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Blank subject or body", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend did not confirm the send", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profile/token": {
            "get": {
                "tags": ["Profile"],
                "summary": "Canvas token connection status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Profile"],
                "summary": "Store a Canvas personal access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "OpenContactRequest": {
            "type": "object",
            "required": ["courseId", "studentCanvasId"],
            "properties": {
                "courseId": {"type": "string"},
                "studentCanvasId": {"type": "integer"}
            }
        },
        "OpenReminderRequest": {
            "type": "object",
            "required": ["courseId", "assignmentId"],
            "properties": {
                "courseId": {"type": "string"},
                "assignmentId": {"type": "integer"}
            }
        },
        "UpdateDraftRequest": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "body": {"type": "string"}
            }
        },
        "SaveTokenRequest": {
            "type": "object",
            "required": ["canvasToken"],
            "properties": {
                "canvasToken": {"type": "string"}
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
