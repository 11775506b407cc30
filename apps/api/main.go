package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hekima/shindano/apps/api/echo"
	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
	"github.com/hekima/shindano/services/captcha"
	"github.com/hekima/shindano/services/email"
	"github.com/hekima/shindano/services/logger"
	"github.com/hekima/shindano/storage/database"
	"github.com/hekima/shindano/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if err := run(std); err != nil {
		std.Fatalf("%+v", err)
	}
}

func run(std *log.Logger) error {
	if err := core.Conf.Validate(); err != nil {
		return err
	}

	var appLogger core.Logger
	if core.Conf.Debug {
		appLogger = logsvc.NewConsoleLogger(std)
	} else {
		appLogger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer db.Close()
	if err = database.Ping(db); err != nil {
		return err
	}
	if err = database.Migrate(db.DB); err != nil {
		return err
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, captchasvc.NewInsecureVerifier(), core.Conf)
	contestSvc := contest.NewService(sqlxrepos.NewContestRepository(db))

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:    core.Conf.Server.Addr,
		UserSvc:    usrSvc,
		ContestSvc: contestSvc,
		Logger:     appLogger,
	})

	serverErrs := make(chan error, 1)
	go func() {
		std.Printf("server listening on %s", core.Conf.Server.Addr)
		serverErrs <- app.Start()
	}()

	shutdownSig := make(chan os.Signal, 1)
	signal.Notify(shutdownSig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrs:
		return err
	case <-app.Shutdown():
		std.Print("fatal server error, shutting down")
	case sig := <-shutdownSig:
		std.Printf("%v received, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Stop(ctx)
}
