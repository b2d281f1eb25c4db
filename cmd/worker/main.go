package main

import (
	"os"

	"go-hrpay/internal/app"
	"go-hrpay/internal/bootstrap"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "logs/worker.log"
	}
	logger := bootstrap.NewLogger(os.Getenv("APP_ENV"), logFile)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunWorker(); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}
