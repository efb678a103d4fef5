package costparameter

import (
	"github.com/wac0705/fastenmind-system-sub000/internal/costparameter/repository"
	"github.com/wac0705/fastenmind-system-sub000/internal/costparameter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costparameter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
