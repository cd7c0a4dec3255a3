package notification

import (
	"github.com/bamahomes/sigiyoro/internal/notification/repository"
	"github.com/bamahomes/sigiyoro/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
