package params

import (
	"context"
	"errors"
	"strings"

	"github.com/shaiso/Cascade/internal/domain"
)

// Ошибки каталога параметров.
var (
	// ErrParamNotFound — параметр с таким путём отсутствует.
	ErrParamNotFound = errors.New("parameter not found")

	// ErrEmptyPath — пустой путь параметра.
	ErrEmptyPath = errors.New("empty parameter path")
)

// Param — одна запись каталога.
type Param struct {
	// Path — полный путь параметра.
	Path string `json:"path"`

	// Value — значение параметра.
	Value string `json:"value"`
}

// Directory — каталог параметров обнаружения эндпоинтов.
//
// Put перезаписывает существующий параметр. Get возвращает
// ErrParamNotFound для отсутствующего пути. List возвращает все
// параметры, чей путь начинается с prefix.
type Directory interface {
	Put(ctx context.Context, path, value string) error
	Get(ctx context.Context, path string) (string, error)
	List(ctx context.Context, prefix string) ([]Param, error)
	Delete(ctx context.Context, path string) error
}

// EndpointPath строит путь параметра обнаружения эндпоинта.
//
// Async-эндпоинты и real-time с единственным контейнером адресуются
// без имени контейнера. Multi-container real-time эндпоинт требует
// целевой контейнер при вызове, поэтому имя контейнера входит в путь.
func EndpointPath(dependencyKey string, endpointType domain.EndpointType, endpointName, containerName string, multiContainer bool) string {
	path := "/" + dependencyKey + "/" + string(endpointType) + "/" + endpointName
	if endpointType == domain.EndpointRealTime && multiContainer {
		path += "/" + containerName
	}
	return path
}

// EdgePath строит путь параметра для edge графа выполнения.
func EdgePath(dependencyKey string, e domain.Edge) string {
	return EndpointPath(dependencyKey, e.EndpointType, e.EndpointName, e.ContainerName, e.MultiContainer)
}

// GroupPrefix — префикс листинга всех параметров группы зависимостей.
func GroupPrefix(dependencyKey string) string {
	return "/" + dependencyKey + "/"
}

// LatestModelPath — путь указателя на последнее развёрнутое имя модели.
// Значение параметра — уникальное (timestamped) имя, под которым
// модель зарегистрирована в control plane.
func LatestModelPath(modelName string) string {
	return "models-" + modelName
}

// InGroup сообщает, принадлежит ли путь параметра группе зависимостей.
func InGroup(path, dependencyKey string) bool {
	return strings.HasPrefix(path, GroupPrefix(dependencyKey))
}
