package main

import (
	"context"
	"log"
	"os"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/m3rciful/afkbot/core/buildinfo"
	corecmd "github.com/m3rciful/afkbot/core/cmd"
	"github.com/m3rciful/afkbot/internal/afkbot"
	appconfig "github.com/m3rciful/afkbot/internal/config"
)

// CLI describes the command line.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path." env:"CONFIG_PATH" default:"config.yaml" type:"path"`
	Check   bool             `help:"Validate configuration, open the state store and exit."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("afkbot"),
		kong.Description("Telegram bot that answers private messages while its owner is away."),
		kong.Vars{"version": buildinfo.String()},
	)

	err := corecmd.Run(corecmd.Options{
		ConfigPath: cli.Config,
		CheckOnly:  cli.Check,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return appconfig.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return afkbot.Bootstrap(context.Background(), cfg.(*appconfig.Config))
		},
	})
	if err != nil {
		log.Printf("afkbot: %v", err)
		os.Exit(1)
	}
}
