package main

import (
	"flag"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"smsguard/internal/daemon"
)

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data-dir", "", "data directory (overrides config default)")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{DataDir: *dataDir}),
	)

	app.Run()
}
