// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.requested    — запрос на выполнение run развёртывания
//   - run.completed    — run завершён (с итоговым статусом)
//   - branch.completed — ветка workflow завершена
//
// Exchanges:
//   - cascade.runs    — запросы на выполнение
//   - cascade.events  — события жизненного цикла runs
//   - cascade.dlq     — dead letter queue
package mq
