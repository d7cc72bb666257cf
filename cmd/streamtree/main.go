// Command streamtree is the CLI for the streamtree core: render a single
// prompt through a configured provider, or drive an interactive tool-using
// chat session, grounded on cmd/hector/main.go's Kong-based CLI structure
// (a CLI struct of cmd:""-tagged subcommands, a --config/--log-level pair
// of global flags, kong.Parse(&cli, kong.Name(...), kong.UsageOnError())).
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/logging"
)

// CLI mirrors cmd/hector's CLI struct shape: subcommands as cmd:""-tagged
// fields, plus global flags every subcommand's Run(cli *CLI) can reach.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Render  RenderCmd  `cmd:"" help:"Render a single prompt through a configured provider."`
	Chat    ChatCmd    `cmd:"" help:"Start an interactive, tool-using chat session."`

	Config   string `short:"c" help:"Path to config file." type:"path" default:"streamtree.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"warn"`
}

// VersionCmd prints a fixed "streamtree (dev)" version string; it does
// not read build info.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println("streamtree (dev)")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	return config.Load(path)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("streamtree"),
		kong.Description("streamtree - a declarative, streaming render engine for LLM applications"),
		kong.UsageOnError(),
	)

	_ = logging.New(logging.ParseLevel(cli.LogLevel))

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
