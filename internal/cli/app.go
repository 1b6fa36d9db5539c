// Package cli is an operator command line that drives the same router as
// the Lambda function: register, login and deregister accounts against the
// configured store.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/server/router"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev router.Event) router.Response
}

var commands = map[string]struct{}{"register": {}, "login": {}, "deregister": {}, "help": {}}

// SplitCommand separates leading configuration flags from the subcommand
// and its own arguments.
func SplitCommand(args []string) (configArgs, cmdArgs []string) {
	for i, a := range args {
		if _, ok := commands[a]; ok {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

type App struct {
	d      Dispatcher
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(d Dispatcher, in io.Reader, out io.Writer) *App {
	return &App{d: d, reader: bufio.NewReader(in), out: out}
}

const usage = `usage: userreg-cli [config flags] <command> [flags]

commands:
  register   -email E [-username U] -first F -last L [-city C ...]
  login      -email E
  deregister -email E
`

// Run executes one subcommand and returns the process exit code: 0 on a 2xx
// response, 1 on any other response or I/O failure, 2 on usage errors.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return 2
	}

	var (
		resp router.Response
		err  error
	)

	switch args[0] {
	case "register":
		resp, err = a.register(ctx, args[1:])
	case "login":
		resp, err = a.login(ctx, args[1:])
	case "deregister":
		resp, err = a.deregister(ctx, args[1:])
	case "help":
		fmt.Fprint(a.out, usage)
		return 0
	default:
		fmt.Fprintf(a.out, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		if _, ok := err.(usageError); ok {
			return 2
		}
		return 1
	}

	fmt.Fprintf(a.out, "%d %s\n%s\n", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return 0
	}
	return 1
}

type usageError string

func (e usageError) Error() string { return string(e) }

func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

// emailOrPrompt returns v or asks for the email when v is empty.
func (a *App) emailOrPrompt(v string) (string, error) {
	if v != "" {
		return v, nil
	}
	return getSimpleText(a.reader, "Enter email", a.out)
}

func (a *App) login(ctx context.Context, args []string) (router.Response, error) {
	fs := newFlagSet("login", a.out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return router.Response{}, usageError(err.Error())
	}

	e, err := a.emailOrPrompt(*email)
	if err != nil {
		return router.Response{}, err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return router.Response{}, err
	}
	defer common.WipeByteArray(pw)

	return a.d.Dispatch(ctx, router.Event{
		Method:                http.MethodGet,
		Path:                  "/login",
		QueryStringParameters: map[string]string{"email": e, "password": string(pw)},
	}), nil
}

func (a *App) register(ctx context.Context, args []string) (router.Response, error) {
	fs := newFlagSet("register", a.out)
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "optional user name")

	props := map[string]*string{}
	for _, name := range []string{"firstName", "lastName", "deskPhone", "cellPhone", "address", "city", "state", "zipCode", "country"} {
		props[name] = new(string)
	}
	fs.StringVar(props["firstName"], "first", "", "first name")
	fs.StringVar(props["lastName"], "last", "", "last name")
	fs.StringVar(props["deskPhone"], "desk-phone", "", "desk phone")
	fs.StringVar(props["cellPhone"], "cell-phone", "", "cell phone")
	fs.StringVar(props["address"], "address", "", "street address")
	fs.StringVar(props["city"], "city", "", "city")
	fs.StringVar(props["state"], "state", "", "state")
	fs.StringVar(props["zipCode"], "zip", "", "zip code")
	fs.StringVar(props["country"], "country", "", "country")

	if err := fs.Parse(args); err != nil {
		return router.Response{}, usageError(err.Error())
	}

	e, err := a.emailOrPrompt(*email)
	if err != nil {
		return router.Response{}, err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return router.Response{}, err
	}
	defer common.WipeByteArray(pw)

	properties := map[string]string{}
	for k, v := range props {
		if *v != "" {
			properties[k] = *v
		}
	}

	body := map[string]any{"email": e, "password": string(pw), "properties": properties}
	if *username != "" {
		body["username"] = *username
	}
	b, err := json.Marshal(body)
	if err != nil {
		return router.Response{}, err
	}

	return a.d.Dispatch(ctx, router.Event{
		Method:  http.MethodPost,
		Path:    "/registrations",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    string(b),
	}), nil
}

func (a *App) deregister(ctx context.Context, args []string) (router.Response, error) {
	fs := newFlagSet("deregister", a.out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return router.Response{}, usageError(err.Error())
	}

	e, err := a.emailOrPrompt(*email)
	if err != nil {
		return router.Response{}, err
	}

	return a.d.Dispatch(ctx, router.Event{
		Method: http.MethodDelete,
		Path:   "/registrations/" + url.PathEscape(e),
	}), nil
}
