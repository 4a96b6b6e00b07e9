package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/report"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Dispatcher *report.Dispatcher
	Scheduler  *report.Scheduler
}
