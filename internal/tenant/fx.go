package tenant

import (
	"github.com/karimoff96/Multilang/internal/tenant/repository"
	"github.com/karimoff96/Multilang/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
