package app

import (
	"database/sql"

	"github.com/go-playground/validator/v10"

	"github.com/mbolis/field-survey/config"
)

// App is what the ingest server's handlers share.
type App struct {
	*sql.DB
	config.Config
	Validate *validator.Validate
}

func NewApp(db *sql.DB, cfg config.Config) App {
	return App{
		DB:       db,
		Config:   cfg,
		Validate: validator.New(),
	}
}
