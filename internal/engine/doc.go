// Package engine содержит разбор и разрешение документа развёртывания.
//
// Включает:
//   - parser.go — парсинг DeploymentSpec из JSON и полная валидация
//   - dag.go    — граф зависимостей по ключам и построение плана выполнения
//
// Engine отвечает за понимание структуры документа и определение того,
// какие развёртывания независимы (выполняются параллельно), а какие
// связаны цепочкой зависимостей. Сам он ничего не выполняет.
package engine
