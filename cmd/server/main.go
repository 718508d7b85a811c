package main

import (
	"os"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Init("info")
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.Mode)

	svc := bootstrap(cfg)
	defer svc.shutdown()

	r := gin.New()
	registerRoutes(r, cfg, svc)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
