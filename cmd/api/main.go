package main

import (
	"fmt"

	"bricknest-backend/internal/app"
	"bricknest-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}

	fiberApp, err := app.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}

	port := cfg.Port
	fmt.Printf("Server running at http://localhost:%s\n", port)
	fmt.Printf("Health check: http://localhost:%s/health/json\n", port)
	fmt.Println("---")

	if err := fiberApp.Listen(":" + port); err != nil {
		panic(err)
	}
}
