package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/agnosticeng/panicsafe"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/service"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/util/logutil"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configFilePath = pflag.StringP("config", "c", "conf/gamesdb.yaml", "games database service config file path")
	logLevel       = pflag.String("log-level", "", "override the log level of the config file")
)

func main() {
	pflag.Parse()
	if err := panicsafe.Recover(run); err != nil {
		fmt.Fprintf(os.Stderr, "gamesdb: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	data, err := ioutil.ReadFile(*configFilePath)
	if err != nil {
		return fmt.Errorf("read config file error: %w", err)
	}

	cfg, err := config.UnmarshalServerConfig(data)
	if err != nil {
		return fmt.Errorf("parse config file error: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	cfg.Adjust()

	if err := logutil.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("init logger error: %w", err)
	}
	defer func() {
		_ = logutil.BgLogger().Sync()
	}()
	metrics.RegisterMetrics()

	s := service.NewService(cfg)
	if err := s.Init(); err != nil {
		s.Close()
		return fmt.Errorf("service init error: %w", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGPIPE,
		syscall.SIGUSR1,
	)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			sig := <-sc
			if sig == syscall.SIGINT || sig == syscall.SIGTERM || sig == syscall.SIGQUIT {
				logutil.BgLogger().Warn("get os signal, close service", zap.String("signal", sig.String()))
				s.Close()
				return
			}
			logutil.BgLogger().Warn("ignore os signal", zap.String("signal", sig.String()))
		}
	}()

	runErr := s.Run()
	if runErr != nil {
		logutil.BgLogger().Error("service run error, exit", zap.Error(runErr))
		s.Close()
		signal.Stop(sc)
		return runErr
	}

	wg.Wait()
	return nil
}
