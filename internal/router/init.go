package router

import (
	userapp "github.com/usuariosapp/accounts-api/internal/application"
	"github.com/usuariosapp/accounts-api/internal/container"
	"github.com/usuariosapp/accounts-api/internal/domain/repository"
	"github.com/usuariosapp/accounts-api/internal/infrastructure/elastic"
	"github.com/usuariosapp/accounts-api/internal/infrastructure/memory"
	pginfra "github.com/usuariosapp/accounts-api/internal/infrastructure/postgres"
	handlers "github.com/usuariosapp/accounts-api/internal/interface/http"
	"github.com/usuariosapp/accounts-api/internal/router/modules"
	"github.com/usuariosapp/accounts-api/pkg/helpers"
	"github.com/usuariosapp/accounts-api/pkg/validation"
)

// buildSessions selects the storage engine configured for this process.
func buildSessions() repository.SessionFactory {
	if container.GetConfig().StorageEngine == "memory" {
		return memory.NewStore()
	}
	return pginfra.NewEngine(container.GetPGPool())
}

func buildUserModule() *modules.UserModule {
	cfg := container.GetConfig()

	var indexer *elastic.Indexer
	if container.GetES() != nil {
		indexer = elastic.NewIndexer(container.GetES(), cfg.ESUsersIndex, container.GetLogger())
	}

	service := userapp.NewService(
		buildSessions(),
		helpers.BcryptHasher{},
		validation.NewUserRules(),
		container.GetLogger(),
		container.GetRabbitPub(),
		indexer,
	)

	handler := handlers.NewUserHandler(service, container.GetLogger(), cfg.ExposeErrorDetails)
	return modules.NewUserModule(handler)
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
}
