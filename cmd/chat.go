package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageforge/internal/progress"
	"github.com/ziadkadry99/pageforge/internal/render"
	"github.com/ziadkadry99/pageforge/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Build a page interactively, one instruction at a time",
	Long: `Starts an interactive session. The first instruction generates a page and
every later one edits it. After each change the page is written to --out,
wrapped in a sandboxed preview host page, so it can be left open in a browser.

Commands:
  /mode preview|code|split   switch the view mode
  /visualize                 draw a backend diagram for the page
  /rename <name>             rename the project
  /show                      print the current page
  /save <file>               write the current page as plain markup
  /sessions                  list saved sessions
  /quit                      leave the session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringP("out", "o", "", "preview file (default <data_dir>/preview.html)")
	chatCmd.Flags().String("resume", "", "resume a saved session by id")
	chatCmd.Flags().String("project", "", "project name for a new session")
	chatCmd.Flags().String("server", "", "use a running pageforge server instead of calling the model directly")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, _ := cmd.Flags().GetString("out")
	resume, _ := cmd.Flags().GetString("resume")
	project, _ := cmd.Flags().GetString("project")
	serverURL, _ := cmd.Flags().GetString("server")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out == "" {
		out = filepath.Join(cfg.DataDir, "preview.html")
	}

	env, err := openBackend(cfg, serverURL)
	if err != nil {
		return err
	}
	defer env.Close()
	if env.Database == nil {
		// Sessions are always saved locally.
		if env.Database, err = openDatabase(cfg); err != nil {
			return err
		}
	}
	store := session.NewSQLStore(env.Database)

	lens := &streamLens{}
	opts := session.Options{
		Project:  project,
		Renderer: newRenderer(cfg, out, project, false),
		Store:    store,
		Observer: lens.observe,
	}

	var ctrl *session.Controller
	if resume != "" {
		ctrl, err = store.Restore(ctx, resume, env.Backend, opts)
		if err != nil {
			return fmt.Errorf("resuming session %s: %w", resume, err)
		}
		if snap := ctrl.Snapshot(); snap.Markup != "" {
			if err := opts.Renderer.Render(ctx, snap.Markup); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	} else {
		ctrl = session.New(env.Backend, opts)
	}
	defer ctrl.Close()

	snap := ctrl.Snapshot()
	fmt.Printf("Session %s (%s)\n", snap.ID, snap.Project)
	fmt.Printf("Preview: %s\n", out)
	for _, m := range snap.Transcript {
		fmt.Printf("  %s: %s\n", m.Role, m.Text)
	}
	fmt.Println("Describe the page you want. Type /quit to leave.")
	fmt.Println()

	for {
		line, err := (&promptui.Prompt{Label: promptLabel(ctrl.Snapshot())}).Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := chatCommand(ctx, ctrl, store, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		lens.begin()
		err = ctrl.Submit(ctx, line)
		lens.end()
		if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		// Success and failure both end with an assistant message.
		if t := ctrl.Snapshot().Transcript; len(t) > 0 {
			fmt.Println(t[len(t)-1].Text)
		}
	}
}

func promptLabel(snap session.Snapshot) string {
	if snap.Markup == "" {
		return "describe"
	}
	return "change"
}

// chatCommand handles a slash command and reports whether to quit.
func chatCommand(ctx context.Context, ctrl *session.Controller, store *session.SQLStore, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/mode":
		mode, err := session.ParseMode(arg)
		if err != nil {
			return false, err
		}
		if err := ctrl.SetMode(ctx, mode); err != nil {
			return false, err
		}
		if mode != session.ModePreview {
			fmt.Println(ctrl.Snapshot().Markup)
		}
		return false, nil
	case "/visualize":
		err := ctrl.Visualize(ctx)
		if errors.Is(err, session.ErrNoMarkup) {
			return false, err
		}
		snap := ctrl.Snapshot()
		if snap.DiagramErr != "" {
			return false, fmt.Errorf("visualization failed: %s", snap.DiagramErr)
		}
		fmt.Println(snap.Diagram)
		return false, nil
	case "/rename":
		return false, ctrl.Rename(ctx, arg)
	case "/save":
		if arg == "" {
			return false, fmt.Errorf("usage: /save <file>")
		}
		markup := ctrl.Snapshot().Markup
		if markup == "" {
			return false, session.ErrNoMarkup
		}
		if err := (&render.FileRenderer{Path: arg, Raw: true}).Render(ctx, markup); err != nil {
			return false, err
		}
		fmt.Printf("Saved %s\n", arg)
		return false, nil
	case "/show":
		fmt.Println(ctrl.Snapshot().Markup)
		return false, nil
	case "/sessions":
		sessions, err := store.List(ctx, 20)
		if err != nil {
			return false, err
		}
		return false, printSessions(sessions)
	}
	return false, fmt.Errorf("unknown command %s", name)
}

// streamLens turns controller snapshots into progress updates while a
// page streams in.
type streamLens struct {
	reporter progress.Reporter
	seen     int
}

func (l *streamLens) begin() {
	l.reporter = progress.NewReporter()
	l.reporter.Start("Working")
	l.seen = 0
}

func (l *streamLens) end() {
	if l.reporter != nil {
		l.reporter.Finish()
		l.reporter = nil
	}
}

func (l *streamLens) observe(snap session.Snapshot) {
	if l.reporter == nil || snap.State != session.StateGenerating {
		return
	}
	if n := len(snap.Markup); n > l.seen {
		l.reporter.Add(n - l.seen)
		l.seen = n
	}
}
