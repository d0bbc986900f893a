package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/shuleni/shule/apps/api/echo"
	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/school"
	"github.com/shuleni/shule/core/student"
	"github.com/shuleni/shule/core/user"
	emailsvc "github.com/shuleni/shule/services/email"
	logsvc "github.com/shuleni/shule/services/logger"
	"github.com/shuleni/shule/storage/database"
	sqlxrepo "github.com/shuleni/shule/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatalf("loading config: %+v", err)
	}
	core.InitValidators()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if conf.Debug {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()
	if err := database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	repo := sqlxrepo.NewRepository(db)
	usrSvc := user.NewService(repo)
	stuSvc := student.NewService(repo, mailSvc)
	schSvc := school.NewService(repo)

	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Addr:       conf.Server.Addr(),
		UserSvc:    usrSvc,
		StudentSvc: stuSvc,
		SchoolSvc:  schSvc,
		Logger:     logger,
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})

	go func() {
		logger.Info("API server listening on " + conf.Server.Addr())
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: start shutdown", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
		}
	}
}
