package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/upskillhq/upskill/apps/api/echo"
	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
	emailsvc "github.com/upskillhq/upskill/services/email"
	logsvc "github.com/upskillhq/upskill/services/logger"
	"github.com/upskillhq/upskill/storage/database"
	sqlxrepos "github.com/upskillhq/upskill/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	if err := run(conf, logger); err != nil {
		logger.Fatal("api: startup failed", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err = db.Ping(); err != nil {
		return err
	}
	if err = database.Migrate(db); err != nil {
		return err
	}

	// set up validation
	validate := validator.New()
	enLocale := en.New()
	uniTranslator := ut.New(enLocale, enLocale)
	translator, _ := uniTranslator.GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db.DB)
	usrSvc := user.NewService(usrRepo)
	authSvc := auth.NewService(conf, auth.NewCodec(conf), auth.NewLedger(sqlxrepos.NewTokenRepository(db.DB)), usrRepo, mailSvc)
	crsRepo := sqlxrepos.NewCourseRepository(db.DB)
	crsSvc := course.NewService(db, crsRepo)
	asgSvc := assignment.NewService(db, sqlxrepos.NewAssignmentRepository(db.DB), crsRepo)
	teamSvc := team.NewService(sqlxrepos.NewTeamRepository(db.DB))

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Addr:           conf.Server.Addr(),
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		AuthSvc:        authSvc,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		AssignmentSvc:  asgSvc,
		TeamSvc:        teamSvc,
		DB:             db,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("api: listening on " + conf.Server.Addr())
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-shutdown:
		logger.Info("api: shutdown started: " + sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}
