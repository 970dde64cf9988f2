package executor

import (
	"time"

	"github.com/shaiso/Cascade/internal/domain"
)

// defaultCallTimeout — таймаут одного вызова задачи.
const defaultCallTimeout = 60 * time.Minute

// RetryPolicy — политика повторов для вида задачи.
//
// Интервал фиксированный: задачи ждут выхода эндпоинта в InService,
// и экспоненциальный backoff здесь только растягивает ожидание.
type RetryPolicy struct {
	// MaxAttempts — максимальное количество попыток, включая первую.
	MaxAttempts int

	// Interval — пауза между попытками.
	Interval time.Duration

	// Timeout — таймаут одного вызова.
	Timeout time.Duration
}

// DefaultPolicies возвращает политики повторов по видам задач.
//
// ModelDeploy и UpdateDependencyParameters не повторяются: их ошибки
// не переходные (битый образ, кривой документ). EndpointDeploy и
// EndpointScalingAndParameterPublish повторяются до 8 раз с интервалом
// 30 секунд: создание эндпоинта и выход в InService занимают минуты,
// и "endpoint is not in service" на ранней попытке — норма.
func DefaultPolicies() map[domain.TaskKind]RetryPolicy {
	return map[domain.TaskKind]RetryPolicy{
		domain.TaskModelDeploy: {
			MaxAttempts: 1,
			Timeout:     defaultCallTimeout,
		},
		domain.TaskEndpointDeploy: {
			MaxAttempts: 8,
			Interval:    30 * time.Second,
			Timeout:     defaultCallTimeout,
		},
		domain.TaskEndpointScalingAndParameterPublish: {
			MaxAttempts: 8,
			Interval:    30 * time.Second,
			Timeout:     defaultCallTimeout,
		},
		domain.TaskUpdateDependencyParameters: {
			MaxAttempts: 1,
			Timeout:     defaultCallTimeout,
		},
	}
}

// policyFor возвращает политику вида задачи или консервативный дефолт
// (одна попытка, стандартный таймаут).
func policyFor(policies map[domain.TaskKind]RetryPolicy, kind domain.TaskKind) RetryPolicy {
	if p, ok := policies[kind]; ok && p.MaxAttempts > 0 {
		if p.Timeout <= 0 {
			p.Timeout = defaultCallTimeout
		}
		return p
	}
	return RetryPolicy{MaxAttempts: 1, Timeout: defaultCallTimeout}
}
