package billing

import (
	"github.com/karimoff96/Multilang/internal/billing/repository"
	"github.com/karimoff96/Multilang/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
