// Package docs registers the modelhub OpenAPI document with swag. It is
// imported by the swagger build of the HTTP layer.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List registered models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/api/models/download": {
            "post": {
                "description": "Streams DownloadProgress events as server-sent events until completed or error.",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["models"],
                "summary": "Download a model and stream progress",
                "parameters": [
                    {"description": "Download request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.DownloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DownloadProgress"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/models/{name}/download-progress": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Last progress event of a download",
                "parameters": [
                    {"type": "string", "description": "Model name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DownloadProgress"}}
                }
            }
        },
        "/api/models/{name}/load": {
            "post": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Load a registered model into memory",
                "parameters": [
                    {"type": "string", "description": "Model name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ActionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/models/{name}/unload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Unload a model",
                "parameters": [
                    {"type": "string", "description": "Model name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ActionResponse"}}
                }
            }
        },
        "/api/models/{name}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Unload and delete a model from disk and registry",
                "parameters": [
                    {"type": "string", "description": "Model name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ActionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generate"],
                "summary": "Generate text with a loaded model",
                "parameters": [
                    {"description": "Generation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/system": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Host memory, disk and CPU usage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SystemInfo"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["openai"],
                "summary": "List loaded models (OpenAI format)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelList"}}
                }
            }
        },
        "/v1/completions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["openai"],
                "summary": "Text completion (OpenAI format)",
                "parameters": [
                    {"description": "Completion request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CompletionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/chat/completions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["openai"],
                "summary": "Chat completion (OpenAI format)",
                "parameters": [
                    {"description": "Chat completion request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatCompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatCompletionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ActionResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "loaded"}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.DownloadRequest": {
            "type": "object",
            "properties": {
                "model_name": {"type": "string", "example": "tinyllama"},
                "hf_model_id": {"type": "string", "example": "TinyLlama/TinyLlama-1.1B-Chat-v1.0"},
                "is_gguf": {"type": "boolean"},
                "hf_token": {"type": "string"}
            }
        },
        "types.DownloadProgress": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "starting"},
                "progress": {"type": "integer", "example": 40},
                "total_files": {"type": "integer", "example": 5},
                "downloaded_files": {"type": "integer", "example": 2},
                "current_file": {"type": "string", "example": "model.safetensors"},
                "error": {"type": "string"}
            }
        },
        "types.ModelSummary": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "tinyllama"},
                "hf_model_id": {"type": "string"},
                "loaded": {"type": "boolean"},
                "size": {"type": "integer"},
                "downloaded_at": {"type": "number"},
                "format": {"type": "string", "example": "gguf"},
                "gguf_file": {"type": "string"},
                "architecture": {"type": "string"},
                "quantization": {"type": "string"},
                "parameters": {"type": "integer"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelSummary"}}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "model_name": {"type": "string", "example": "tinyllama"},
                "prompt": {"type": "string"},
                "max_tokens": {"type": "integer", "example": 100, "description": "0 or absent uses the server default (100)"},
                "temperature": {"type": "number", "example": 0.7, "description": "0 or absent uses the server default (0.7)"}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {"generated_text": {"type": "string"}}
        },
        "types.SystemInfo": {
            "type": "object",
            "properties": {
                "memory": {"type": "object", "properties": {"total": {"type": "integer"}, "available": {"type": "integer"}, "percent": {"type": "number"}}},
                "disk": {"type": "object", "properties": {"total": {"type": "integer"}, "free": {"type": "integer"}, "percent": {"type": "number"}}},
                "cpu_percent": {"type": "number"}
            }
        },
        "types.ChatMessage": {
            "type": "object",
            "properties": {"role": {"type": "string", "example": "user"}, "content": {"type": "string"}}
        },
        "types.ChatCompletionRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}},
                "max_tokens": {"type": "integer", "description": "0 or absent uses the server default (100)"},
                "temperature": {"type": "number", "description": "0 or absent uses the server default (0.7)"},
                "stream": {"type": "boolean"}
            }
        },
        "types.CompletionRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "prompt": {"type": "string"},
                "max_tokens": {"type": "integer", "description": "0 or absent uses the server default (100)"},
                "temperature": {"type": "number", "description": "0 or absent uses the server default (0.7)"},
                "stream": {"type": "boolean"}
            }
        },
        "types.Usage": {
            "type": "object",
            "properties": {
                "prompt_tokens": {"type": "integer"},
                "completion_tokens": {"type": "integer"},
                "total_tokens": {"type": "integer"}
            }
        },
        "types.ChatCompletionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string", "example": "chat.completion"},
                "created": {"type": "integer"},
                "model": {"type": "string"},
                "choices": {"type": "array", "items": {"type": "object", "properties": {"index": {"type": "integer"}, "message": {"$ref": "#/definitions/types.ChatMessage"}, "finish_reason": {"type": "string"}}}},
                "usage": {"$ref": "#/definitions/types.Usage"}
            }
        },
        "types.CompletionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string", "example": "text_completion"},
                "created": {"type": "integer"},
                "model": {"type": "string"},
                "choices": {"type": "array", "items": {"type": "object", "properties": {"text": {"type": "string"}, "index": {"type": "integer"}, "logprobs": {"type": "object"}, "finish_reason": {"type": "string"}}}},
                "usage": {"$ref": "#/definitions/types.Usage"}
            }
        },
        "types.ModelList": {
            "type": "object",
            "properties": {
                "object": {"type": "string", "example": "list"},
                "data": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "object": {"type": "string"}, "created": {"type": "integer"}, "owned_by": {"type": "string"}}}}
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
	Title:            "modelhub API",
	Description:      "Local control plane for downloading, loading and serving language models.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
