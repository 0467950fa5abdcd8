package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/initializer"
)

func main() {
	cfgPath := flag.String("config", "./config.json", "app JSON config file path")
	flag.Parse()

	cfgFile, err := os.Open(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "not able to find config file :", *cfgPath)
		os.Exit(1)
	}
	var cfg config.Config
	if err = jsoniter.NewDecoder(cfgFile).Decode(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "not able to parse JSON from config file :", *cfgPath)
		os.Exit(1)
	}
	cfgFile.Close()

	engine, err := initializer.Init(&cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ratefeed initialization failed, please check the log for details")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "ratefeed exited with error, please check the log for details")
		os.Exit(1)
	}
}
