package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/app"
	"github.com/klass-lk/ginblog/internal/config"
)

var configPath = flag.String("config", "config.toml", "Path to the TOML config file")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] [serve | token -uid UID -email EMAIL]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Could not load config", slog.Any("err", err))
		os.Exit(1)
	}
	slog.SetDefault(slog.New(ginblog.NewLogHandler(cfg.Log.Debug, ginblog.NewLogWriter(cfg.Log.File))))

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		err = serve(cfg)
	case "token":
		err = token(cfg, flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Exiting", slog.Any("err", err))
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Warn("Could not close backends", slog.Any("err", err))
		}
	}()
	return a.Run()
}

// token prints a signed bearer token, handy for local development against
// the jwt provider.
func token(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	uid := fs.String("uid", "", "User id")
	email := fs.String("email", "", "User email")
	name := fs.String("name", "", "Display name")
	ttl := fs.Duration("ttl", cfg.Auth.TokenTTL.Duration, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" {
		return fmt.Errorf("-uid is required")
	}

	signed, err := ginblog.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ginblog.Identity{
		UID:   *uid,
		Email: *email,
		Name:  *name,
	}, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
