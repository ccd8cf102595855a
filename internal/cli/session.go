// Package cli renders the catalog screens in a terminal and maps typed
// commands onto the screen state containers.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shopeasy/internal/domain/browse"
	"github.com/xenking/shopeasy/internal/domain/detail"
	"github.com/xenking/shopeasy/internal/domain/profile"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

type screen uint8

const (
	screenHome screen = iota
	screenDetail
	screenProfile
)

// Session is one interactive terminal session.
type Session struct {
	browse  *browse.Controller
	detail  *detail.Screen
	profile *profile.Editor
	out     io.Writer

	screen screen
}

// NewSession returns a Session writing to out.
func NewSession(b *browse.Controller, d *detail.Screen, p *profile.Editor, out io.Writer) *Session {
	return &Session{
		browse:  b,
		detail:  d,
		profile: p,
		out:     out,
	}
}

// Run activates the listing screen and executes commands read from in until
// quit, end of input or context cancellation.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	readCtx, stop := context.WithCancel(ctx)
	defer stop()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	s.browse.Activate(ctx)
	s.browse.Wait()
	s.render()

	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return errors.Wrap(err, "read command")
					}
				default:
				}
				return nil
			}
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// Exec runs a single command line and renders the resulting screen.
// User mistakes are printed, not returned.
func (s *Session) Exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	zctx.From(ctx).Debug("Command", zap.String("cmd", cmd), zap.String("arg", arg))

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit":
		return ErrQuit
	case "help":
		fmt.Fprint(s.out, helpText)
		return nil
	case "home", "back":
		s.screen = screenHome
	case "all":
		s.screen = screenHome
		s.browse.SelectAll(ctx)
		s.browse.Wait()
	case "cat":
		s.screen = screenHome
		if err := s.browse.SelectSlug(ctx, arg); err != nil {
			if !errors.Is(err, browse.ErrUnknownCategory) {
				return err
			}
			fmt.Fprintf(s.out, "Unknown category %q\n", arg)
			return nil
		}
		s.browse.Wait()
	case "search":
		s.screen = screenHome
		s.browse.SetSearchText(arg)
	case "open":
		if arg == "" {
			fmt.Fprintln(s.out, "Usage: open <id>")
			return nil
		}
		s.screen = screenDetail
		s.detail.Show(ctx, arg)
		s.detail.Wait()
	case "profile":
		s.screen = screenProfile
		s.profileCommand(arg)
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type help\n", cmd)
		return nil
	}

	s.render()
	return nil
}

func (s *Session) profileCommand(arg string) {
	sub, value, _ := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)

	var err error
	switch strings.ToLower(sub) {
	case "":
	case "edit":
		s.profile.Begin()
	case "save":
		_, err = s.profile.Save()
	case "cancel":
		s.profile.Cancel()
	case "set":
		field, v, _ := strings.Cut(value, " ")
		v = strings.TrimSpace(v)
		switch strings.ToLower(field) {
		case "name":
			err = s.profile.SetName(v)
		case "email":
			err = s.profile.SetEmail(v)
		case "photo":
			err = s.profile.SetPhoto(v)
		default:
			fmt.Fprintf(s.out, "Unknown profile field %q\n", field)
		}
	default:
		fmt.Fprintf(s.out, "Unknown profile command %q\n", sub)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", profileError(err))
	}
}

func profileError(err error) string {
	switch {
	case errors.Is(err, profile.ErrNoDraft):
		return "run 'profile edit' first"
	case errors.Is(err, profile.ErrEmptyName):
		return "name is required"
	case errors.Is(err, profile.ErrInvalidEmail):
		return "email is invalid"
	default:
		return err.Error()
	}
}

func (s *Session) render() {
	switch s.screen {
	case screenDetail:
		renderDetail(s.out, s.detail.View())
	case screenProfile:
		renderProfile(s.out, s.profile)
	default:
		renderList(s.out, s.browse.View())
	}
}

const helpText = `Commands:
  home | back                      show the product list
  all                              show every product
  cat <slug>                       filter by category
  search <text>                    type into the search box
  open <id>                        show product details
  profile                          show the profile
  profile edit|save|cancel         edit the profile
  profile set name|email|photo <v> change a draft field
  help                             show this help
  quit                             leave
`
