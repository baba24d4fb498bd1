package main

import (
	"os"
	"os/signal"
	"syscall"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/routers"
	"lms/utils"
)

func main() {
	config.LoadConfig()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.Env)
	database.ConnectDb()

	utils.InitMailer()
	utils.InitPaymentGateway()
	utils.InitCache()
	utils.InitEvents()

	scheduler := utils.InitializeScheduler()

	app := routers.NewApp()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Log.Info().Msg("shutting down")
		<-scheduler.Stop().Done()
		if err := utils.Events.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("error closing event publisher")
		}
		_ = app.Shutdown()
	}()

	logger.Log.Info().Str("port", config.AppConfig.Port).Msg("server is running")
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}
