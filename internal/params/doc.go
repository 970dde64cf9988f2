// Package params реализует каталог параметров обнаружения эндпоинтов.
//
// Каталог — иерархическое хранилище строк с префиксным листингом.
// Инференс-клиенты находят эндпоинты шага конвейера по префиксу
// "/{dependency_key}/", не зная имён эндпоинтов заранее.
//
// Schema путей:
//
//	/{dependency_key}/{endpoint_type}/{endpoint_name}                    — single-container и async
//	/{dependency_key}/{endpoint_type}/{endpoint_name}/{container_name}   — multi-container real-time
//	models-{model_name}                                                  — указатель на последнюю версию модели
//
// Интерфейс Directory реализуют Memory (тесты, локальный запуск)
// и repo.ParamRepo (Postgres).
package params
