package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/config"
	"github.com/fongpn/fmfalorsetar-sub000/internal/adminapi"
	"github.com/fongpn/fmfalorsetar-sub000/internal/app"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "/etc/gymd.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema, then exit")
)

// buildVersion is set by the release pipeline via -ldflags.
var buildVersion = "dev"

func printHelp() {
	fmt.Fprintln(os.Stderr, "Usage: gymd [options]")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if *h {
		printHelp()
		return
	}
	if *showVer {
		fmt.Println("gymd", buildVersion)
		return
	}

	appConfig := config.LoadConfig(*conffile)
	application := app.NewApplication(appConfig)
	application.Init(appConfig)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.InitRouter()

	errchan := make(chan error, 1)
	go func() {
		errchan <- webserver.Listen()
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errchan:
		if err != nil {
			zap.L().Error("web server stopped", zap.Error(err))
		}
	case sig := <-sigchan:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		webserver.Shutdown()
	}
}
