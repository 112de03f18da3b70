package audit

import (
	"github.com/karimoff96/Multilang/internal/audit/repository"
	"github.com/karimoff96/Multilang/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
