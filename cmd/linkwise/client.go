package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"linkwise/internal/app"
	"linkwise/internal/bot"
	"linkwise/internal/config"
	"linkwise/internal/console"
	"linkwise/internal/linkapi"
	"linkwise/internal/linkstore"
	"linkwise/internal/session"
	"linkwise/internal/turbodo"
)

func runBot(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := linkapi.NewClient(cfg.APIBaseURL, http.DefaultClient, log)
	h, err := bot.NewHandler(ctx, cfg, linkapi.NewIdentity(client), client, log)
	if err != nil {
		return err
	}
	h.Start(ctx)
	log.Info("Application shut down gracefully.")
	return nil
}

func runConsole(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := linkapi.NewClient(cfg.APIBaseURL, http.DefaultClient, log)
	con := console.New(os.Stdin, os.Stdout, log)
	gate := session.NewGate(linkapi.NewIdentity(client), log)
	store := linkstore.New(client, gate, con, log)
	board := turbodo.NewBoard()
	defer board.Close()
	ctrl := app.New(ctx, gate, store, con, log)
	defer ctrl.Close()
	con.Attach(ctrl, board)

	if err := con.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
