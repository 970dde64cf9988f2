package api

import (
	"log/slog"

	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/params"
	"github.com/shaiso/Cascade/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	specRepo     *repo.SpecRepo
	runRepo      *repo.RunRepo
	scheduleRepo *repo.ScheduleRepo
	params       params.Directory
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	SpecRepo     *repo.SpecRepo
	RunRepo      *repo.RunRepo
	ScheduleRepo *repo.ScheduleRepo
	Params       params.Directory
	Publisher    *mq.Publisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		specRepo:     cfg.SpecRepo,
		runRepo:      cfg.RunRepo,
		scheduleRepo: cfg.ScheduleRepo,
		params:       cfg.Params,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}
