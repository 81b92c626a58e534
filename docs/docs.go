// Package docs registers the API document with swag. Regenerate the
// template with `swag init -g main.go` after changing handler annotations.
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
        "/sites": {
            "get": {"tags": ["sites"], "summary": "List gauge sites", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Site"}}}}}
        },
        "/sites/nearest": {
            "get": {"tags": ["sites"], "summary": "Find the nearest gauge site", "produces": ["application/json"],
                "parameters": [
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "description": "Longitude", "name": "lng", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.NearestSiteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }}
        },
        "/sites/geojson": {
            "get": {"tags": ["sites"], "summary": "Gauge sites as GeoJSON", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}}
        },
        "/sites/{id}/readings": {
            "get": {"tags": ["readings"], "summary": "List readings of a site", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Site id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum number of readings", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Only readings from the last N days (max 3650)", "name": "days", "in": "query"},
                    {"type": "string", "description": "Only readings created at or after this RFC3339 time; overrides days", "name": "since", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}}}}}
        },
        "/sites/{id}/trend": {
            "get": {"tags": ["dashboard"], "summary": "Site trend", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Site id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Look-back window in days (default 7, max 3650)", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }}
        },
        "/readings": {
            "get": {"tags": ["readings"], "summary": "List recent readings", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Maximum number of readings (default 20, max 500)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Only readings of this site", "name": "siteId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}}}}},
            "post": {"tags": ["readings"], "summary": "Submit a water-level reading",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "description": "Gauge photo", "name": "photo", "in": "formData", "required": true},
                    {"type": "string", "description": "Site id", "name": "siteId", "in": "formData"},
                    {"type": "number", "description": "Water level in meters", "name": "waterLevel", "in": "formData", "required": true},
                    {"type": "number", "description": "Device latitude", "name": "latitude", "in": "formData", "required": true},
                    {"type": "number", "description": "Device longitude", "name": "longitude", "in": "formData", "required": true},
                    {"type": "number", "description": "GPS accuracy in meters", "name": "accuracy", "in": "formData"},
                    {"type": "string", "description": "Field officer", "name": "submittedBy", "in": "formData"},
                    {"type": "number", "description": "OCR confidence 0..1", "name": "ocrConfidence", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Reading"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }}
        },
        "/readings/{id}": {
            "get": {"tags": ["readings"], "summary": "Get a reading", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Reading id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Reading"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }}
        },
        "/readings/{id}/photo": {
            "get": {"tags": ["readings"], "summary": "Get the photo of a reading", "produces": ["image/jpeg", "image/png"],
                "parameters": [{"type": "string", "description": "Reading id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        },
        "/alerts": {
            "get": {"tags": ["readings"], "summary": "List alerts", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}}}}}
        },
        "/dashboard": {
            "get": {"tags": ["dashboard"], "summary": "Dashboard snapshot", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}}
        },
        "/dashboard/map": {
            "get": {"tags": ["dashboard"], "summary": "Live map", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}}
        },
        "/export/readings.xlsx": {
            "get": {"tags": ["export"], "summary": "Export readings to Excel",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        },
        "/export/readings.csv": {
            "get": {"tags": ["export"], "summary": "Export readings to CSV", "produces": ["text/csv"],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.NearestSiteResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/utils.Coordinate"},
                "verificationRadiusMeters": {"type": "number"},
                "distanceMeters": {"type": "number"},
                "withinRadius": {"type": "boolean"}
            }
        },
        "models.Site": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/utils.Coordinate"},
                "verificationRadiusMeters": {"type": "number"}
            }
        },
        "models.Reading": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "siteId": {"type": "string"},
                "siteName": {"type": "string"},
                "waterLevelMeters": {"type": "number"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "photoId": {"type": "string"},
                "submittedBy": {"type": "string"},
                "distanceFromSiteMeters": {"type": "number"},
                "isVerified": {"type": "boolean"},
                "ocrConfidence": {"type": "number"},
                "createdAt": {"type": "string"}
            }
        },
        "utils.Coordinate": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "gaugewatch API",
	Description:      "River gauge water-level readings with location verification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
