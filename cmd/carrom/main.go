package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"carrom.hcl" help:"Path to HCL configuration file (missing file uses defaults)"`
	Seed     *int64 `help:"Deterministic RNG seed (overrides config)"`
	Human    string `help:"Strategy playing the human side: sharp, steady, wild (overrides config)"`
	LogLevel string `default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFile  string `help:"Write logs to this file instead of stderr"`
	NoColor  bool   `help:"Disable colour output"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Watch a live match in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Play headless matches and report statistics"`
	Serve    ServeCmd         `cmd:"" help:"Play a live match and stream it to WebSocket spectators"`
	Watch    WatchCmd         `cmd:"" help:"Watch a match streamed by another carrom serve"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("carrom"),
		kong.Description("Carrom table with an adaptive computer opponent"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
