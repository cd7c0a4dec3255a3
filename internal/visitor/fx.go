package visitor

import (
	"github.com/bamahomes/sigiyoro/internal/visitor/repository"
	"github.com/bamahomes/sigiyoro/internal/visitor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("visitor",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
