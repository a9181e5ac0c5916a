// Package docs is generated by swaggo/swag from the handler annotations.
// Regenerate with: swag init -g cmd/farewatch/main.go -o cmd/farewatch/docs
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
        "/v1/flights/search": {
            "post": {
                "description": "Query the pricing provider for one route and date. Results are cached per route.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Search live flight offers",
                "parameters": [
                    {
                        "description": "Search Criteria",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/flight.SearchRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/flights/filter": {
            "post": {
                "description": "Apply price, stops, airline, time band and duration filters plus a sort key to the results of a route",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Filter and sort flight results",
                "parameters": [
                    {
                        "description": "Filter Criteria",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/flight.SearchRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/flights/cache/invalidate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Drop cached results for a route",
                "parameters": [
                    {
                        "description": "Search Criteria",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/flight.SearchRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/flight-api": {
            "get": {
                "description": "Dispatches on the action query parameter: get-price-history, get-user-alerts, get-user-notifications",
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Price tracking actions",
                "parameters": [
                    {"type": "string", "description": "Action name", "name": "action", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}}
                }
            },
            "post": {
                "description": "Dispatches on the action query parameter: create-search, create-alert, deactivate-search, mark-notification-read",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Price tracking actions",
                "parameters": [
                    {"type": "string", "description": "Action name", "name": "action", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}}
                }
            }
        },
        "/v1/scan": {
            "post": {
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Run the recurring search scanner once",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "flight.SearchRequest": {
            "type": "object",
            "properties": {
                "origin": {"type": "string", "example": "GRU"},
                "destination": {"type": "string", "example": "GIG"},
                "departure_date": {"type": "string", "example": "2026-03-10"},
                "return_date": {"type": "string"},
                "adults": {"type": "integer", "example": 1},
                "max_price": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Farewatch Flight API",
	Description:      "Flight search, filtering and price tracking backed by the Amadeus flight-offers API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
