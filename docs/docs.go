// Package docs registers the gateway's OpenAPI document with swag.
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
    "paths": {
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness of the gateway, and of the face service with deep=true",
                "parameters": [
                    {"type": "boolean", "name": "deep", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}},
                    "503": {"description": "Face service unavailable", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/api/documents/process": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Process document images and summarize the result",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/DocumentProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Document summary", "schema": {"$ref": "#/definitions/DocumentSummary"}},
                    "400": {"description": "No document images", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Document reader unreachable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/documents/fraud-detection": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Process document images with authenticity checks",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/DocumentProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Document summary", "schema": {"$ref": "#/definitions/DocumentSummary"}},
                    "400": {"description": "No document images", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/document-fraud/detect": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Evaluate every fraud check against a processed document",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/DocumentProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Fraud summary", "schema": {"$ref": "#/definitions/FraudSummary"}},
                    "400": {"description": "No document images", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/documents/verify-identity": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Match the document portrait with a live portrait",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/DocumentProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Similarity", "schema": {"$ref": "#/definitions/VerifyIdentityResponse"}},
                    "400": {"description": "Missing images or live portrait", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "No portrait on the document", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/documents/compare-documents": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Compare two identity documents",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/CompareDocumentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Comparison", "schema": {"$ref": "#/definitions/ComparisonResult"}},
                    "400": {"description": "Missing images", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unparseable documents or missing portraits", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/documents/compare-passports": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Alias of compare-documents",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/CompareDocumentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Comparison", "schema": {"$ref": "#/definitions/ComparisonResult"}}
                }
            }
        },
        "/api/detect-face": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Detect face attributes",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/FaceImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "Attribute details and raw response"},
                    "400": {"description": "No image", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/icao-detect": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Check a portrait against the ICAO quality rules",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/FaceImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "Compliance per section and raw response"},
                    "400": {"description": "No image", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/face-match": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "summary": "Match two faces",
                "parameters": [
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/FacePairRequest"}}
                ],
                "responses": {
                    "200": {"description": "Similarity, score and raw response"},
                    "400": {"description": "Missing images", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/liveness-detection": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Look up a liveness transaction or submit frames",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LivenessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Liveness status, score and raw response"},
                    "400": {"description": "No transaction id or frames", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/reports/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Fetch a stored report",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "The stored summary"},
                    "404": {"description": "Unknown or expired report", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "faceApi": {"type": "string"}
            }
        },
        "DocumentImage": {
            "type": "object",
            "properties": {
                "base64": {"type": "string"},
                "format": {"type": "string"}
            }
        },
        "DocumentProcessRequest": {
            "type": "object",
            "properties": {
                "images": {"type": "array", "items": {"$ref": "#/definitions/DocumentImage"}},
                "scenario": {"type": "string", "default": "FullAuth"},
                "tag": {"type": "string"},
                "livePortraitBase64": {"type": "string"}
            }
        },
        "CompareDocumentsRequest": {
            "type": "object",
            "properties": {
                "firstDocumentImageBase64": {"type": "string"},
                "secondDocumentImageBase64": {"type": "string"}
            }
        },
        "FaceImageRequest": {
            "type": "object",
            "properties": {
                "imageBase64": {"type": "string"}
            }
        },
        "FacePairRequest": {
            "type": "object",
            "properties": {
                "imageBase64_1": {"type": "string"},
                "imageBase64_2": {"type": "string"}
            }
        },
        "LivenessRequest": {
            "type": "object",
            "properties": {
                "transactionId": {"type": "string"},
                "frames": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DocumentSummary": {
            "type": "object",
            "properties": {
                "transactionId": {"type": "string"},
                "overallStatus": {"type": "string"},
                "documentType": {"type": "string"},
                "documentNumber": {"type": "string"},
                "fullName": {"type": "string"},
                "dateOfBirth": {"type": "string"},
                "expiryDate": {"type": "string"},
                "validity": {"type": "object"},
                "documentPosition": {"type": "object"}
            }
        },
        "FraudSummary": {
            "type": "object",
            "properties": {
                "transactionId": {"type": "string"},
                "overallStatus": {"type": "string"},
                "checks": {"type": "array", "items": {"type": "object"}},
                "notApplicable": {"type": "array", "items": {"type": "string"}}
            }
        },
        "VerifyIdentityResponse": {
            "type": "object",
            "properties": {
                "similarityPercent": {"type": "number"},
                "documentPortraitBase64": {"type": "string"},
                "issuance": {
                    "type": "object",
                    "properties": {
                        "jwt": {"type": "string"},
                        "irmaServerUrl": {"type": "string"}
                    }
                }
            }
        },
        "ComparisonResult": {
            "type": "object",
            "properties": {
                "firstDocument": {"type": "object"},
                "secondDocument": {"type": "object"},
                "faceMatchScore": {"type": "number"},
                "faceMatchScorePercent": {"type": "number"},
                "isFaceMatch": {"type": "boolean"},
                "isDocumentNumberMatch": {"type": "boolean"},
                "isNameMatch": {"type": "boolean"},
                "isDobMatch": {"type": "boolean"},
                "faceMatchThreshold": {"type": "number"}
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
	Title:            "Document verification gateway",
	Description:      "Document reader and face service gateway that returns simplified summaries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// ReadDoc renders the registered document.
func ReadDoc() (string, error) {
	return swag.ReadDoc(SwaggerInfo.InstanceName())
}
