// Package docs registers the Swagger document served under /swagger.
//
// It follows the layout swag init produces and is kept in sync with the
// annotations in cmd/main.go and internal/api by hand.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "https://github.com/guttosm/quotegate",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/quotegate",
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
        "/api/stock_data": {
            "post": {
                "description": "Fetches daily k-line data for an instrument over an inclusive date range",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "Get historical daily quotes",
                "parameters": [
                    {
                        "description": "Instrument and date range",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.StockDataRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.QuoteRecord"
                            }
                        }
                    },
                    "400": {
                        "description": "Missing parameters",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "No data found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Provider failure",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Always returns OK if the service is running",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Returns ready if the market-data provider is reachable",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Readiness probe",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
            }
        },
        "dto.StockDataRequest": {
            "type": "object",
            "required": [
                "code",
                "end_date",
                "start_date"
            ],
            "properties": {
                "code": {
                    "type": "string",
                    "example": "sh.600000"
                },
                "end_date": {
                    "type": "string",
                    "example": "2024-01-05"
                },
                "start_date": {
                    "type": "string",
                    "example": "2024-01-01"
                }
            }
        },
        "models.QuoteRecord": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "code": {"type": "string"},
                "open": {"type": "number"},
                "high": {"type": "number"},
                "low": {"type": "number"},
                "close": {"type": "number"},
                "preclose": {"type": "string"},
                "volume": {"type": "number"},
                "amount": {"type": "number"},
                "adjustflag": {"type": "string"},
                "turn": {"type": "string"},
                "tradestatus": {"type": "string"},
                "pctChg": {"type": "string"},
                "peTTM": {"type": "string"},
                "pbMRQ": {"type": "string"},
                "psTTM": {"type": "string"},
                "pcfNcfTTM": {"type": "string"},
                "isST": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5001",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "quotegate API",
	Description:      "Historical daily quotes from Baostock over HTTP.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
