// Package docs содержит описание HTTP API в формате Swagger 2.0.
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
                "tags": ["health"],
                "summary": "Проверка состояния",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products": {
            "get": {
                "description": "Без параметров возвращает весь каталог. С параметром ids возвращает найденные продукты и список ненайденных",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Список продуктов",
                "parameters": [
                    {"type": "string", "description": "Идентификаторы через запятую", "name": "ids", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Добавляет продукт в каталог. Код продукта уникален",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Создание продукта",
                "parameters": [
                    {"description": "Данные продукта", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Код уже занят", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Хранилище недоступно", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/low-stock": {
            "get": {
                "description": "Возвращает продукты, у которых остаток строго меньше порога. Без параметра берётся порог из конфигурации",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Продукты с низким остатком",
                "parameters": [
                    {"type": "integer", "description": "Порог остатка", "name": "threshold", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.ProductResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/exists/{id}": {
            "get": {
                "description": "Возвращает 1, если продукт есть, и 0, если нет",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Проверка существования продукта",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор продукта", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "integer"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Продукт по идентификатору",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор продукта", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Доступно только администраторам. Роль запрашивается у сервиса пользователей по заголовку X-User-Id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Изменение продукта",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор продукта", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Идентификатор пользователя", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "Новые данные продукта", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "403": {"description": "Нет прав администратора", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["products"],
                "summary": "Удаление продукта",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор продукта", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/{id}/inventory/movements": {
            "post": {
                "description": "Применяет знаковое изменение остатка ровно один раз для ключа category-code-price.\nПовтор с тем же ключом возвращает 200 и applied=false, остаток не меняется",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Движение остатка",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор продукта", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Знаковое изменение остатка", "name": "quantity", "in": "query", "required": true},
                    {"description": "Поля ключа идемпотентности", "name": "movement", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.MovementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Движение уже было применено", "schema": {"$ref": "#/definitions/http.MovementResponse"}},
                    "201": {"description": "Движение применено", "schema": {"$ref": "#/definitions/http.MovementResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Недостаточно остатка", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "http.MovementRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "example": "Electronics"},
                "code": {"type": "string", "example": "PROD-0001"},
                "price": {"type": "number", "example": 999.99}
            }
        },
        "http.MovementResponse": {
            "type": "object",
            "properties": {
                "applied": {"type": "boolean"},
                "idempotency_key": {"type": "string"},
                "product_id": {"type": "integer"},
                "quantity": {"type": "integer"},
                "stock": {"type": "integer"}
            }
        },
        "http.ProductRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "example": "Electronics"},
                "code": {"type": "string", "example": "PROD-0001"},
                "name": {"type": "string", "example": "Laptop"},
                "price": {"type": "number", "example": 999.99},
                "stock": {"type": "integer", "example": 10}
            }
        },
        "http.ProductResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "code": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        },
        "http.ProductsResponse": {
            "type": "object",
            "properties": {
                "not_found": {"type": "array", "items": {"type": "integer"}},
                "products": {"type": "array", "items": {"$ref": "#/definitions/http.ProductResponse"}}
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
	Title:            "Product Catalog API",
	Description:      "Каталог продуктов с идемпотентным учётом движений остатка.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
