package visitorsession

import (
	"github.com/bamahomes/sigiyoro/internal/visitorsession/repository"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/service"
	"go.uber.org/fx"
)

var Module = fx.Module("visitorsession.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
