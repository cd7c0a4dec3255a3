package billing

import (
	"github.com/bamahomes/sigiyoro/internal/billing/repository"
	"github.com/bamahomes/sigiyoro/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
