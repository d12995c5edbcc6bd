// Package docs registers the OpenAPI description served at /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "status, devices, clients", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/pump/toggle": {
            "post": {
                "description": "Broadcasts {\"action\":\"TOGGLE\"} to every connected device",
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "Toggle pump",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.okResponse"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/pump/off": {
            "post": {
                "description": "Broadcasts {\"action\":\"OFF\"} to every connected device",
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "Turn pump off",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.okResponse"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/pump/timer": {
            "post": {
                "description": "Broadcasts {\"action\":\"TIMER\",\"hours\":h,\"minutes\":m} to every connected device",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "Set pump timer",
                "parameters": [{
                    "description": "Timer payload (hours 0-23, minutes 0-59)",
                    "name": "body",
                    "in": "body",
                    "required": true,
                    "schema": {"$ref": "#/definitions/service.TimerInput"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.okResponse"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.validationResponse"}}
                }
            }
        },
        "/pump/status": {
            "get": {
                "description": "Last accepted status, {false,false,0} until the device reports",
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "Get pump status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PumpStatus"}}}
            },
            "post": {
                "description": "Device status ingress: replaces the cached status and relays it to UI clients",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "Report pump status",
                "parameters": [{
                    "description": "Status payload (remaining_time 0-86399)",
                    "name": "body",
                    "in": "body",
                    "required": true,
                    "schema": {"$ref": "#/definitions/service.StatusReport"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.okResponse"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.validationResponse"}}
                }
            }
        },
        "/pump/events": {
            "get": {
                "description": "Filter the pump audit trail by date. A date-only 'to' is treated as end of day.",
                "produces": ["application/json"],
                "tags": ["pump"],
                "summary": "List pump events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range", "name": "to", "in": "query"},
                    {"enum": ["TOGGLE", "OFF", "TIMER", "STATUS"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/ws/esp": {
            "get": {
                "description": "Websocket for the pump controller; receives TOGGLE/OFF/TIMER commands",
                "tags": ["channels"],
                "summary": "Device channel",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        },
        "/ws/client": {
            "get": {
                "description": "Websocket for UI clients; receives status records",
                "tags": ["channels"],
                "summary": "Client channel",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "handlers.okResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "ok"}}
        },
        "handlers.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.validationResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Validation error"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/service.FieldError"}}
            }
        },
        "service.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "tag": {"type": "string"},
                "param": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.PumpStatus": {
            "type": "object",
            "properties": {
                "physical_switch": {"type": "boolean"},
                "motor_state": {"type": "boolean"},
                "remaining_time": {"type": "integer", "minimum": 0, "maximum": 86399}
            }
        },
        "service.StatusReport": {
            "type": "object",
            "required": ["motor_state", "physical_switch", "remaining_time"],
            "properties": {
                "physical_switch": {"type": "boolean"},
                "motor_state": {"type": "boolean"},
                "remaining_time": {"type": "integer", "minimum": 0, "maximum": 86399}
            }
        },
        "service.TimerInput": {
            "type": "object",
            "required": ["hours", "minutes"],
            "properties": {
                "hours": {"type": "integer", "minimum": 0, "maximum": 23},
                "minutes": {"type": "integer", "minimum": 0, "maximum": 59}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pump relay API",
	Description:      "Relays pump commands to the controller and status records to UI clients.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
