package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/config"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	Compiler *compiler.Compiler
	config.Config
}
