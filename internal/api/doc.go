// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - spec_handler.go     — обработчики для /specs
//   - run_handler.go      — обработчики для /runs
//   - schedule_handler.go — обработчики для /schedules
//   - param_handler.go    — обработчики для /params
//
// API предоставляет REST endpoints для управления документами
// развёртывания, runs и schedules, и для чтения каталога параметров.
package api
