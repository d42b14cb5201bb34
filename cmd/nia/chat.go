package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/tutorapi"
)

const chatHelp = `Type a question and press enter. Commands:
  /new            start a new conversation
  /folder NAME    list the conversations of a folder
  /close          close the folder list
  /load ID        continue a past conversation
  /good ID        rate a reply as helpful
  /bad ID         rate a reply as not helpful
  /depth N        answer depth, 1 to 3
  /next, /skip    onboarding
  /quit           leave the chat`

func newChatCmd(a *app) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "chat <child-id>",
		Short: "Chat with Nia as one of your children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if depth < domain.MinDepth || depth > domain.MaxDepth {
				return fmt.Errorf("--depth must be between %d and %d", domain.MinDepth, domain.MaxDepth)
			}
			if err := a.ctrl.SelectChild(cmd.Context(), childID); err != nil {
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			r := &repl{app: a, depth: depth}
			return r.run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&depth, "depth", domain.DefaultDepth, "answer depth, 1 to 3")
	return cmd
}

type repl struct {
	*app
	depth int
	shown int
}

func (r *repl) run(ctx context.Context) error {
	r.shown = len(r.ctrl.Snapshot().Chat.Messages)
	for {
		line, err := r.readLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		quit, err := r.handle(ctx, line)
		r.notifications()
		if err != nil && !errors.Is(err, controller.ErrStaleView) {
			r.view.Error(err, err.Error())
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, r.send(ctx, line)
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, chatHelp) //nolint:errcheck
	case "/new":
		if err := r.ctrl.NewConversation(); err != nil {
			return false, err
		}
		r.shown = 0
		fmt.Fprintln(r.out, "New conversation.") //nolint:errcheck
	case "/folder":
		if arg == "" {
			r.view.Folders(r.ctrl.Snapshot().Chat.Folders)
			return false, nil
		}
		if err := r.ctrl.OpenFolder(ctx, arg); err != nil {
			return false, err
		}
		r.view.Folder(r.ctrl.Snapshot().Chat.OpenFolder)
	case "/close":
		r.ctrl.CloseFolder()
	case "/load":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		if err := r.ctrl.LoadExisting(ctx, id); err != nil {
			return false, err
		}
		r.shown = 0
		r.printMessages(true)
	case "/good", "/bad":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		return false, r.ctrl.SubmitFeedback(ctx, id, command == "/good")
	case "/depth":
		var depth int
		if _, err := fmt.Sscanf(arg, "%d", &depth); err != nil || depth < domain.MinDepth || depth > domain.MaxDepth {
			return false, fmt.Errorf("depth must be between %d and %d", domain.MinDepth, domain.MaxDepth)
		}
		r.depth = depth
	case "/next":
		if err := r.ctrl.NextOnboarding(ctx); err != nil {
			return false, err
		}
		r.view.Onboarding(r.ctrl.Snapshot().Onboarding)
	case "/skip":
		return false, r.ctrl.SkipOnboarding(ctx)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", command)
	}
	return false, nil
}

// send prints the replies added to the buffer. A failed send has already
// written its synthetic reply, so only local validation errors surface.
func (r *repl) send(ctx context.Context, text string) error {
	err := r.ctrl.Send(ctx, text, r.depth)
	r.printMessages(false)

	var apiErr *tutorapi.APIError
	if errors.As(err, &apiErr) || errors.Is(err, tutorapi.ErrTransport) {
		return nil
	}
	return err
}

// printMessages prints the messages added since the last call. User messages
// are skipped unless they were loaded from history.
func (r *repl) printMessages(withUser bool) {
	msgs := r.ctrl.Snapshot().Chat.Messages
	if r.shown > len(msgs) {
		r.shown = 0
	}
	for _, m := range msgs[r.shown:] {
		if m.Role == domain.RoleUser && !withUser {
			continue
		}
		r.view.Message(m)
	}
	r.shown = len(msgs)
}
