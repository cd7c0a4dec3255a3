package plan

import (
	"github.com/bamahomes/sigiyoro/internal/plan/repository"
	"github.com/bamahomes/sigiyoro/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
