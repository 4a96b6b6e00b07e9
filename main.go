package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/oauth"
	"github.com/pulseboard/pulseboard/app"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/database"
	"github.com/pulseboard/pulseboard/httpx"
	"github.com/pulseboard/pulseboard/log"
	"github.com/pulseboard/pulseboard/mailer"
	"github.com/pulseboard/pulseboard/report"
	"github.com/pulseboard/pulseboard/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.ValidateOnly {
		os.Exit(validateConfig(cfg))
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	dispatcher := &report.Dispatcher{
		Source: report.NewDBSource(db),
		Mailer: &mailer.SendGrid{
			APIKey:      cfg.SendGridKey,
			From:        cfg.MailFrom,
			FromName:    cfg.MailFromName,
			FallbackDir: cfg.FallbackDir,
			Timeout:     cfg.MailTimeout,
		},
		ConfigDir: cfg.ConfigDir,
	}

	scheduler := report.NewScheduler(report.NewDBScheduleStore(db), dispatcher, cfg.ConfigDir, cfg.ReportTimezone)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatal("main.scheduler:", err)
	}
	defer scheduler.Stop()

	bearerServer := oauth.NewBearerServer(cfg.TokenSecret, 2*time.Hour, httpx.CredentialsVerifier(db), nil)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Dispatcher:   dispatcher,
		Scheduler:    scheduler,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}

// validateConfig runs the out-of-band schema checks and exits non-zero
// on any problem. Load-time checks stay syntax-only.
func validateConfig(cfg config.Config) int {
	problems := []string{}

	recipients, err := config.LoadRecipients(cfg.ConfigDir)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		problems = append(problems, config.ValidateRecipients(recipients)...)
	}

	questions, err := config.LoadQuestions(cfg.ConfigDir)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		problems = append(problems, config.ValidateQuestions(questions)...)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			log.Error("config:", p)
		}
		return 1
	}

	log.Info("config OK")
	return 0
}
