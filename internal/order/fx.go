package order

import (
	"github.com/karimoff96/Multilang/internal/order/repository"
	"github.com/karimoff96/Multilang/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
