// Package admin implements the out-of-band provisioning commands: accounts
// and models are never created through the HTTP API.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/flagx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/algorithms"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

var ErrUnknownCommand = errors.New("unknown command")

type AccountCreator interface {
	Create(ctx context.Context, name, email string, password []byte) (*models.Account, error)
}

type ModelCreator interface {
	Create(ctx context.Context, ownerID int64, algorithm string, inputs, weights []float64) (*models.Model, error)
}

type App struct {
	accounts AccountCreator
	models   ModelCreator
	in       *bufio.Reader
	out      io.Writer
}

func NewApp(a AccountCreator, m ModelCreator, in io.Reader, out io.Writer) *App {
	return &App{accounts: a, models: m, in: bufio.NewReader(in), out: out}
}

// Run executes the command named by the first element of args.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := flagx.SplitCommand(args)

	switch cmd {
	case "create-account":
		return a.createAccount(ctx, rest)
	case "create-model":
		return a.createModel(ctx, rest)
	case "algorithms":
		for _, n := range algorithms.Names() {
			fmt.Fprintln(a.out, n)
		}
		return nil
	case "", "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  create-account [-name NAME] [-email EMAIL]")
	fmt.Fprintln(a.out, "  create-model -owner ID -algorithm NAME [-inputs 1,2,3] [-weights 0.1,0.2,0.3]")
	fmt.Fprintln(a.out, "  algorithms")
	fmt.Fprintln(a.out, "Vectors starting with a negative number need the = form: -inputs=-1,2")
}

func (a *App) createAccount(ctx context.Context, args []string) error {
	var name, email string
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&name, "name", "", "account name")
	fs.StringVar(&email, "email", "", "email address")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-name", "-email"})); err != nil {
		return err
	}

	var err error
	if name == "" {
		if name, err = GetSimpleText(a.in, "Name", a.out); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	if name == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: name and a valid email are required", common.ErrorMalformedRequest)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrorMalformedRequest)
	}

	account, err := a.accounts.Create(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created account id=%d email=%s\n", account.ID, account.Email)
	return nil
}

func (a *App) createModel(ctx context.Context, args []string) error {
	var (
		owner           int64
		algorithm       string
		inputs, weights string
	)
	fs := flag.NewFlagSet("create-model", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Int64Var(&owner, "owner", 0, "owning account id")
	fs.StringVar(&algorithm, "algorithm", "", "algorithm name")
	fs.StringVar(&inputs, "inputs", "", "comma-separated inputs, -inputs=-1,2 for a negative first element")
	fs.StringVar(&weights, "weights", "", "comma-separated weights, -weights=-1,2 for a negative first element")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-owner", "-algorithm", "-inputs", "-weights"})); err != nil {
		return err
	}
	if owner <= 0 || algorithm == "" {
		return fmt.Errorf("%w: -owner and -algorithm are required", common.ErrorMalformedRequest)
	}

	in, err := ParseVector(inputs)
	if err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	w, err := ParseVector(weights)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	m, err := a.models.Create(ctx, owner, algorithm, in, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created model id=%d owner=%d algorithm=%s\n", m.ID, m.OwnerID, m.Algorithm)
	return nil
}
