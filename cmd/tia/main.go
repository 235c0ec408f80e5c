package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/storages/gitnotes"
	"github.com/pescuma/tia/lib/workspace"
)

var cli struct {
	Dir       string `short:"C" help:"Directory inside the git repository. Default is the current one." type:"path"`
	LogLevel  string `default:"info" enum:"debug,info,warn,error" env:"TIA_LOG_LEVEL" help:"Minimum level of messages to show (${enum})."`
	NotesRef  string `default:"refs/notes/tests" env:"TIA_NOTES_REF" help:"Git ref that holds the test impact data."`
	Fetch     bool   `env:"TIA_FETCH" help:"Fetch the test impact data from the remote before reading it."`
	Remote    string `default:"origin" env:"TIA_REMOTE" help:"Remote to fetch the test impact data from."`
	GitAuthor string `env:"TIA_GIT_AUTHOR" help:"Author of the notes commits, as 'Name <email>'. Default is the git user."`

	Serve    ServeCmd    `cmd:"" help:"Start the server for the repository and wait until interrupted."`
	Run      RunCmd      `cmd:"" help:"Start the server, run a command that runs tests and stop the server."`
	Show     ShowCmd     `cmd:"" help:"Show the test impact data attached to HEAD."`
	Reset    ResetCmd    `cmd:"" help:"Remove the test impact data attached to HEAD."`
	Disabled DisabledCmd `cmd:"" help:"Ask a running server which tests of a project can be skipped."`
	Digest   DigestCmd   `cmd:"" help:"Compute the digest of a list of dependencies."`
}

type cmdContext struct {
	ctx context.Context
	ws  *workspace.Workspace
}

func main() {
	kctx := kong.Parse(&cli, kong.ShortUsageOnError())

	level, err := consoles.ParseLevel(cli.LogLevel)
	kctx.FatalIfErrorf(err)

	name, email := parseAuthor(cli.GitAuthor)

	ws, err := workspace.NewWorkspace(cli.Dir, &workspace.Options{
		Level: level,
		Notes: &gitnotes.Options{
			NotesRef:    cli.NotesRef,
			FetchRemote: cli.Fetch,
			Remote:      cli.Remote,
			AuthorName:  name,
			AuthorEmail: email,
		},
	})
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&cmdContext{
		ctx: ctx,
		ws:  ws,
	})
	kctx.FatalIfErrorf(err)
}
