package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pipedocs/cmd/pipedocs/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("pipedocs"),
		kong.Description("Publishes a pipeline README as a versioned documentation site."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
