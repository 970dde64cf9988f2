package engine

import (
	"sort"
	"strings"

	"github.com/shaiso/Cascade/internal/domain"
)

// DependentSuffix — соглашение об именовании ключей зависимостей:
// ключ "<endpoint>-dependent" производится эндпоинтом "<endpoint>".
// Ключ без такого эндпоинта среди моделей — корневая группа.
const DependentSuffix = "-dependent"

// Group — одна группа зависимостей в плане выполнения.
//
// Во второй фазе workflow каждая группа обслуживается отдельной веткой:
// только эта ветка пишет параметры под префиксом своего ключа.
type Group struct {
	// Key — dependency_key группы.
	Key string

	// Producer — имя эндпоинта, производящего этот ключ.
	// Пустая строка для корневых групп.
	Producer string

	// Edges — downstream-развёртывания группы в порядке объявления в документе.
	Edges []domain.Edge
}

// IsRoot возвращает true, если у группы нет upstream-эндпоинта.
func (g *Group) IsRoot() bool {
	return g.Producer == ""
}

// Plan — разрешённый план выполнения.
//
// Groups упорядочены детерминированно и топологически: группа никогда
// не стоит раньше группы, производящей её upstream. Повторное разрешение
// того же документа даёт идентичный план.
type Plan struct {
	// Groups — группы зависимостей в топологическом порядке.
	Groups []Group
}

// Group возвращает группу по ключу.
func (p *Plan) Group(key string) *Group {
	for i := range p.Groups {
		if p.Groups[i].Key == key {
			return &p.Groups[i]
		}
	}
	return nil
}

// Keys возвращает ключи групп в порядке плана.
func (p *Plan) Keys() []string {
	keys := make([]string, len(p.Groups))
	for i := range p.Groups {
		keys[i] = p.Groups[i].Key
	}
	return keys
}

// keyGraph — граф ключей зависимостей с индексной таблицей смежности.
//
// Узел — dependency_key. Ребро i → j существует, если какой-то edge
// под ключом i называет эндпоинт, производящий ключ j.
type keyGraph struct {
	keys  []string         // индекс → ключ (отсортированы для детерминизма)
	index map[string]int   // ключ → индекс
	adj   [][]int          // индекс → индексы downstream-ключей
	graph domain.ExecutionGraph
}

// Resolve строит план выполнения из валидированного документа.
//
// Шаги:
//  1. Собрать узлы — все dependency_key графов документа.
//  2. Связать ключи через производящие эндпоинты (DependentSuffix).
//  3. Проверить отсутствие циклов (DFS с отслеживанием активного пути).
//  4. Выдать группы в детерминированном топологическом порядке.
//
// Resolve ничего не выполняет: он только устанавливает, какие
// развёртывания могут идти параллельно, а какие — последовательно.
func Resolve(spec *domain.DeploymentSpec) (*Plan, error) {
	g := buildKeyGraph(spec)

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	order := g.topologicalOrder()

	plan := &Plan{Groups: make([]Group, 0, len(order))}
	for _, idx := range order {
		key := g.keys[idx]
		plan.Groups = append(plan.Groups, Group{
			Key:      key,
			Producer: producerOf(spec, key),
			Edges:    g.graph[key],
		})
	}

	return plan, nil
}

// buildKeyGraph строит индексную таблицу смежности по ключам.
func buildKeyGraph(spec *domain.DeploymentSpec) *keyGraph {
	graph := spec.MergedGraph()

	keys := make([]string, 0, len(graph))
	for key := range graph {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g := &keyGraph{
		keys:  keys,
		index: make(map[string]int, len(keys)),
		adj:   make([][]int, len(keys)),
		graph: graph,
	}
	for i, key := range keys {
		g.index[key] = i
	}

	// Ребро k → k', если edge под k называет эндпоинт, производящий k'.
	for i, key := range keys {
		for _, e := range graph[key] {
			downstream := e.EndpointName + DependentSuffix
			j, ok := g.index[downstream]
			if !ok {
				continue // эндпоинт ничего не производит — лист графа
			}
			g.adj[i] = append(g.adj[i], j)
		}
	}

	return g
}

// producerOf возвращает эндпоинт, производящий ключ, или "" для корня.
func producerOf(spec *domain.DeploymentSpec, key string) string {
	endpoint, ok := strings.CutSuffix(key, DependentSuffix)
	if !ok {
		return ""
	}
	if spec.ModelByEndpoint(endpoint) == nil {
		return ""
	}
	return endpoint
}

// Цвета узлов для DFS.
const (
	colorWhite = iota // не посещён
	colorGray         // в активном пути
	colorBlack        // обход завершён
)

// detectCycles выполняет DFS с отслеживанием активного пути рекурсии.
// При обнаружении обратного ребра возвращает CyclicDependencyError
// с перечислением ключей цикла.
func (g *keyGraph) detectCycles() error {
	color := make([]int, len(g.keys))
	path := make([]int, 0, len(g.keys))

	var visit func(i int) error
	visit = func(i int) error {
		color[i] = colorGray
		path = append(path, i)

		for _, j := range g.adj[i] {
			switch color[j] {
			case colorGray:
				// Обратное ребро: вырезаем цикл из активного пути.
				cycle := extractCycle(g.keys, path, j)
				return &CyclicDependencyError{Keys: cycle}
			case colorWhite:
				if err := visit(j); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[i] = colorBlack
		return nil
	}

	for i := range g.keys {
		if color[i] == colorWhite {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractCycle вырезает цикл из активного пути, начиная с узла start.
func extractCycle(keys []string, path []int, start int) []string {
	from := 0
	for i, idx := range path {
		if idx == start {
			from = i
			break
		}
	}

	cycle := make([]string, 0, len(path)-from+1)
	for _, idx := range path[from:] {
		cycle = append(cycle, keys[idx])
	}
	cycle = append(cycle, keys[start]) // замыкаем цикл
	return cycle
}

// topologicalOrder возвращает индексы ключей в топологическом порядке
// (алгоритм Кана). При равенстве выбирается лексикографически меньший
// ключ, поэтому порядок детерминирован для одного и того же документа.
// Вызывается только после detectCycles.
func (g *keyGraph) topologicalOrder() []int {
	inDegree := make([]int, len(g.keys))
	for _, targets := range g.adj {
		for _, j := range targets {
			inDegree[j]++
		}
	}

	var queue []int
	for i := range g.keys {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(g.keys))
	for len(queue) > 0 {
		// Индексы отсортированы по ключам, поэтому минимальный индекс —
		// лексикографически меньший ключ.
		sort.Ints(queue)
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)

		for _, j := range g.adj[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	return order
}
