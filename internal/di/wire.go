//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"weave-backend/internal/config"
)

// InitializeContainer builds the full application container from the
// configuration. Run `wire` in this directory to regenerate wire_gen.go.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
