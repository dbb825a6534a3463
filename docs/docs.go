// Package docs регистрирует описание API для swagger UI.
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
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход администратора",
                "parameters": [
                    {
                        "description": "Учётные данные",
                        "name": "input",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "token"},
                    "401": {"description": "Неверные учётные данные"},
                    "429": {"description": "Слишком много попыток"}
                }
            }
        },
        "/api/players": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Публичный список игроков",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/registrations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Заявка на запись в академию",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Ошибка валидации"}
                }
            }
        },
        "/api/admin/subscriptions/{playerID}/payments/{month}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Записать оплату за месяц",
                "parameters": [
                    {"type": "integer", "name": "playerID", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM", "name": "month", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Игрок не найден"},
                    "422": {"description": "Ошибка валидации"}
                }
            },
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Статус оплаты за месяц",
                "parameters": [
                    {"type": "integer", "name": "playerID", "in": "path", "required": true},
                    {"type": "string", "name": "month", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Игрок не найден"}}
            }
        },
        "/api/admin/subscriptions/report": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Отчёт по оплатам за месяц",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM, по умолчанию текущий", "name": "month", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/uploads": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Загрузить изображение или видео",
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "image | video", "name": "type", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "413": {"description": "Файл слишком большой"},
                    "503": {"description": "Хранилище не настроено"}
                }
            }
        }
    },
    "definitions": {
        "models.Credentials": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Academy API",
	Description:      "API спортивной академии: игроки, абонементы, заявки, тренеры, новости.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
