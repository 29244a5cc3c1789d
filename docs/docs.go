// Package docs registers the OpenAPI description served at /docs.
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
        "/": {
            "get": {
                "description": "Get basic worker information and capabilities",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Worker information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WorkerInfoResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Healthy while the capture source is delivering frames",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/markers/latest": {
            "get": {
                "description": "Markers, poses and rejected candidates of the most recently processed frame",
                "produces": ["application/json"],
                "tags": ["markers"],
                "summary": "Latest marker result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FrameResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/markers/{id}/image": {
            "get": {
                "description": "PNG of a DICT_6X6_250 marker, for printing",
                "produces": ["image/png"],
                "tags": ["markers"],
                "summary": "Render a marker",
                "parameters": [
                    {"type": "integer", "description": "Marker id (0-249)", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Side length in pixels (default: 200)", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/snapshot": {
            "get": {
                "produces": ["image/jpeg"],
                "tags": ["stream"],
                "summary": "Latest annotated frame",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/stream": {
            "get": {
                "description": "multipart/x-mixed-replace stream of frames with marker axes and probe circles drawn in",
                "produces": ["multipart/x-mixed-replace"],
                "tags": ["stream"],
                "summary": "Annotated MJPEG stream",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/system/source": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get capture source stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SourceResponse"}}
                }
            }
        },
        "/system/stats": {
            "get": {
                "description": "Process statistics plus the capture source counters",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "no frame processed yet"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "nats_connected": {"type": "boolean", "example": true},
                "source_id": {"type": "string", "example": "0"},
                "status": {"type": "string", "example": "healthy"},
                "worker_id": {"type": "string", "example": "worker-1"}
            }
        },
        "handlers.WorkerInfoResponse": {
            "type": "object",
            "properties": {
                "capabilities": {"type": "array", "items": {"type": "string"}},
                "mode": {"type": "string", "example": "markers"},
                "status": {"type": "string", "example": "running"},
                "version": {"type": "string", "example": "1.0.0"},
                "worker_id": {"type": "string", "example": "worker-1"}
            }
        },
        "models.Point2D": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"}
            }
        },
        "models.Vector": {
            "type": "object",
            "properties": {
                "X": {"type": "number"},
                "Y": {"type": "number"},
                "Z": {"type": "number"}
            }
        },
        "models.Pose": {
            "type": "object",
            "properties": {
                "reprojection_error": {"type": "number"},
                "rotation": {"$ref": "#/definitions/models.Vector"},
                "translation": {"$ref": "#/definitions/models.Vector"}
            }
        },
        "models.MarkerPose": {
            "type": "object",
            "properties": {
                "corners": {"type": "array", "items": {"$ref": "#/definitions/models.Point2D"}},
                "error": {"type": "string"},
                "id": {"type": "integer"},
                "pose": {"$ref": "#/definitions/models.Pose"},
                "valid": {"type": "boolean"}
            }
        },
        "models.FrameResult": {
            "type": "object",
            "properties": {
                "features": {"type": "array", "items": {"$ref": "#/definitions/models.Point2D"}},
                "height": {"type": "integer"},
                "markers": {"type": "array", "items": {"$ref": "#/definitions/models.MarkerPose"}},
                "processed_at": {"type": "string"},
                "processing_time_ns": {"type": "integer"},
                "rejected": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/models.Point2D"}}},
                "status": {"type": "integer", "enum": [-1, 1]},
                "width": {"type": "integer"}
            }
        },
        "models.SourceResponse": {
            "type": "object",
            "properties": {
                "error_count": {"type": "integer"},
                "fps": {"type": "number"},
                "frame_count": {"type": "integer"},
                "height": {"type": "integer"},
                "last_error": {"type": "string"},
                "last_frame_time": {"type": "string"},
                "marker_count": {"type": "integer"},
                "marker_frames": {"type": "integer"},
                "pose_failures": {"type": "integer"},
                "processing_time": {"type": "string"},
                "reinitialized": {"type": "integer"},
                "source_id": {"type": "string"},
                "started_at": {"type": "string"},
                "status": {"type": "string"},
                "width": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ArUco Worker API",
	Description:      "Marker detection and pose estimation worker: latest poses, annotated MJPEG preview and printable markers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
