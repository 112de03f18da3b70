package rbac

import "go.uber.org/fx"

var Module = fx.Module("rbac",
	fx.Provide(NewVocabularyHolder),
	fx.Provide(NewResolver),
	fx.Provide(NewScopeResolver),
)
