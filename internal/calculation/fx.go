package calculation

import (
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/repository"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("calculation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
