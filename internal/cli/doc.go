// Package cli реализует инструмент командной строки Cascade.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Cascade API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления specs, runs, schedules и для
// просмотра каталога параметров обнаружения.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Cascade API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	specs, err := client.ListSpecs()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: cascade spec list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - spec: list, create, show, delete, versions, push
//   - run: list, start, show, cancel, report
//   - schedule: list, create, show, update, delete, enable, disable
//   - param: list
//
// Каждая группа создаётся через фабричную функцию (NewSpecCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
