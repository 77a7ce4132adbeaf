package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Quiz Grade API",
        "description": "Quiz scoring, offline score import and grade analytics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Questions", "description": "Question bank"},
        {"name": "Quizzes", "description": "Quiz definitions"},
        {"name": "Submissions", "description": "Online quiz grading"},
        {"name": "Grades", "description": "Statistics, offline imports and learner trends"},
        {"name": "Dashboard", "description": "Leaderboards"}
    ],
    "paths": {
        "/questions": {
            "get": {
                "tags": ["Questions"],
                "summary": "List questions",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["SINGLE", "MULTIPLE", "TRUE_FALSE"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Questions"],
                "summary": "Create question",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuestionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/questions/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Questions"],
                "summary": "Get question",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Questions"],
                "summary": "Update question",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuestionRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            },
            "delete": {
                "tags": ["Questions"],
                "summary": "Delete question",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Referenced by a quiz"}}
            }
        },
        "/quizzes": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "List quizzes with cached statistics",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string", "enum": ["ONLINE_AUTO", "OFFLINE_MANUAL"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Quizzes"],
                "summary": "Create quiz",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuizRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}
            }
        },
        "/quizzes/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Quizzes"], "summary": "Get quiz", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Quizzes"],
                "summary": "Update quiz",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuizRequest"}}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["Quizzes"], "summary": "Delete quiz", "responses": {"204": {"description": "Deleted"}}}
        },
        "/quizzes/{id}/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit answers for an online quiz",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Graded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/quizzes/{id}/attempts/latest": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Latest attempt of the caller for a course hour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "course_hour_id", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grades/analysis/{quizId}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Grade statistics for a quiz",
                "parameters": [
                    {"name": "quizId", "in": "path", "required": true, "type": "integer"},
                    {"name": "refresh", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Quiz not found"}}
            }
        },
        "/grades/analysis/{quizId}/export": {
            "get": {
                "tags": ["Grades"],
                "summary": "Download the quiz score sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "quizId", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/grades/import": {
            "post": {
                "tags": ["Grades"],
                "summary": "Import offline exam scores",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "quiz_id", "in": "formData", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grades/students/{userId}/trend": {
            "get": {
                "tags": ["Grades"],
                "summary": "Score trend of a learner",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Learner not found"}}
            }
        },
        "/dashboard/top-scores": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Top scores of today or of all time",
                "parameters": [
                    {"name": "scope", "in": "query", "type": "string", "enum": ["today", "all"]},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "QuestionRequest": {
            "type": "object",
            "required": ["type", "content", "answer", "score"],
            "properties": {
                "type": {"type": "string"},
                "content": {"type": "string"},
                "options": {"type": "array", "items": {"type": "object", "properties": {"value": {"type": "string"}, "label": {"type": "string"}}}},
                "answer": {"type": "array", "items": {"type": "string"}},
                "score": {"type": "integer"}
            }
        },
        "QuizRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "category": {"type": "string"},
                "question_ids": {"type": "array", "items": {"type": "integer"}},
                "total_score": {"type": "integer"},
                "pass_score": {"type": "integer"},
                "exam_date": {"type": "string"}
            }
        },
        "SubmissionRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "integer"},
                "course_hour_id": {"type": "integer"},
                "answers": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
