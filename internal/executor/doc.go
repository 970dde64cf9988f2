// Package executor выполняет задачи развёртывания с retry-политикой.
//
// Каждому виду задачи (domain.TaskKind) соответствует зарегистрированный
// Executor и фиксированная RetryPolicy: количество попыток, интервал
// между ними и таймаут одного вызова. Invoker прогоняет задачу через
// политику и возвращает структурный domain.TaskResult вместо ошибки:
// ветка оркестратора продолжает или останавливается по статусу.
//
// Политики передаются явной конфигурацией, а не глобальным состоянием.
package executor
