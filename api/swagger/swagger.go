package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rotation Portal API",
        "description": "Review and decision workflow for clinical rotation requests",
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
        {"name": "RotationRequests", "description": "Review queue and decisions"},
        {"name": "Candidates", "description": "Roster corrections on pending requests"},
        {"name": "ClinicalServices", "description": "Clinical service catalog"}
    ],
    "paths": {
        "/rotation-requests": {
            "get": {
                "tags": ["RotationRequests"],
                "summary": "List rotation requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses (pending, approved, rejected)"},
                    {"name": "trainingCenterId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotation-requests/{id}": {
            "get": {
                "tags": ["RotationRequests"],
                "summary": "Get rotation request detail with roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotation-requests/{id}/approve": {
            "post": {
                "tags": ["RotationRequests"],
                "summary": "Approve a pending rotation request",
                "description": "Creates one enrollment and one rotation assignment per candidate. Cleanup problems are reported in meta.warnings.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ApprovalResultEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request is being processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not pending or empty roster", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Approval step failed, details.stage names the step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotation-requests/{id}/resume": {
            "post": {
                "tags": ["RotationRequests"],
                "summary": "Resume an approval left incomplete",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Resumed", "schema": {"$ref": "#/definitions/ApprovalResultEnvelope"}},
                    "412": {"description": "Not approved or nothing left", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotation-requests/{id}/reject": {
            "post": {
                "tags": ["RotationRequests"],
                "summary": "Reject a pending rotation request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing reason", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}": {
            "patch": {
                "tags": ["Candidates"],
                "summary": "Correct a single candidate field",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCandidateFieldRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown field or bad value", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Request no longer pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Candidates"],
                "summary": "Remove a candidate from a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Request no longer pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clinical-services": {
            "get": {
                "tags": ["ClinicalServices"],
                "summary": "List active clinical services",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RejectRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "UpdateCandidateFieldRequest": {
            "type": "object",
            "required": ["field"],
            "properties": {
                "field": {"type": "string", "enum": ["firstName", "lastName", "email", "phone", "desiredService", "startDate", "endDate", "scheduleStart", "scheduleEnd", "career", "level", "docentName", "docentEmail", "docentPhone"]},
                "value": {"type": "string", "description": "Dates as YYYY-MM-DD, times as HH:MM, empty clears dates"}
            }
        },
        "ApprovalResult": {
            "type": "object",
            "properties": {
                "requestId": {"type": "string"},
                "enrollmentsCreated": {"type": "integer"},
                "rotationsCreated": {"type": "integer"},
                "servicesCreated": {"type": "integer"},
                "skippedCandidates": {"type": "array", "items": {"type": "string"}},
                "cleanupIncomplete": {"type": "boolean"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ApprovalResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ApprovalResult"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
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
