package subscription

import (
	"github.com/bamahomes/sigiyoro/internal/subscription/repository"
	"github.com/bamahomes/sigiyoro/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
