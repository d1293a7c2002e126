// Package console is the interactive terminal front-end.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"linkwise/internal/app"
	"linkwise/internal/render"
	"linkwise/internal/turbodo"
)

const helpText = `Commands:
  signin <email> <password>   sign in
  signup <email> <password>   create an account
  signout                     sign out
  add <url>                   save a link
  rm <id>                     delete a link
  search [query]              filter the list (empty query shows all)
  list                        reload links from the server
  todo                        show Turbo-Do tasks
  todo add <text>             add a task
  todo check <id>             complete a task
  help                        show this help
  quit                        exit
`

// Console reads commands line by line and prints the screens the controller asks for.
// It also answers delete confirmations from the same input.
type Console struct {
	out io.Writer
	log logrus.FieldLogger

	lines chan string

	mu     sync.Mutex
	screen string
	done   map[int]bool

	ctrl  *app.Controller
	board *turbodo.Board
}

func New(in io.Reader, out io.Writer, logger logrus.FieldLogger) *Console {
	c := &Console{
		out:   out,
		log:   logger.WithField("component", "console"),
		lines: make(chan string),
		done:  make(map[int]bool),
	}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		close(c.lines)
	}()
	return c
}

// Attach connects the console to its controller and task board.
func (c *Console) Attach(ctrl *app.Controller, board *turbodo.Board) {
	c.ctrl = ctrl
	c.board = board
	board.OnChange(c.onTasks)
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) ShowAuth() {
	c.mu.Lock()
	c.screen = "auth"
	c.mu.Unlock()
	c.printf("Not signed in. Use signin or signup.\n")
}

func (c *Console) ShowApp(email string) {
	c.mu.Lock()
	c.screen = "app"
	c.mu.Unlock()
	c.printf("Signed in as %s\n", email)
}

func (c *Console) RenderLinks(items []render.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != "app" {
		return
	}
	io.WriteString(c.out, render.Text(items))
}

func (c *Console) AuthError(msg string) {
	c.printf("Error: %s\n", msg)
}

func (c *Console) AddError(msg string) {
	c.printf("Error: %s\n", msg)
}

// Confirm asks prompt on the terminal and reads a y/N answer.
func (c *Console) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.printf("%s [y/N] ", prompt)
	line, err := c.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *Console) onTasks(tasks []turbodo.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tasks {
		if t.State == turbodo.Done && !c.done[t.ID] {
			c.done[t.ID] = true
			fmt.Fprintf(c.out, "🏁 %s\n", t.Text)
		}
	}
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// Run processes commands until quit, end of input, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	if c.ctrl == nil || c.board == nil {
		return errors.New("console is not attached")
	}
	c.printf("Linkwise console. Type help for commands.\n")
	for {
		c.printf("> ")
		line, err := c.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := c.execute(ctx, line); quit {
			return nil
		}
	}
}

func (c *Console) signedIn() bool {
	if c.ctrl.Email() == "" {
		c.printf("Sign in first.\n")
		return false
	}
	return true
}

func (c *Console) execute(ctx context.Context, line string) (quit bool) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	c.log.WithField("command", cmd).Debug("Console command")

	switch cmd {
	case "":
	case "help":
		c.printf("%s", helpText)
	case "quit", "exit":
		return true
	case "signin", "signup":
		email, password, _ := strings.Cut(rest, " ")
		if cmd == "signin" {
			_ = c.ctrl.SignIn(ctx, email, strings.TrimSpace(password))
		} else {
			_ = c.ctrl.SignUp(ctx, email, strings.TrimSpace(password))
		}
	case "signout":
		if err := c.ctrl.SignOut(ctx); err != nil {
			c.printf("Error: sign out failed\n")
		}
	case "add":
		if c.signedIn() {
			if err := c.ctrl.AddLink(ctx, rest); err == nil {
				c.printf("Link saved.\n")
			}
		}
	case "rm":
		if c.signedIn() {
			if rest == "" {
				c.printf("Usage: rm <id>\n")
				break
			}
			if err := c.ctrl.DeleteLink(ctx, rest); err != nil {
				c.printf("Error: could not delete link\n")
			}
		}
	case "search":
		if c.signedIn() {
			c.ctrl.Search(rest)
		}
	case "list":
		if c.signedIn() {
			if err := c.ctrl.Refresh(ctx); err != nil {
				c.printf("Error: could not load links\n")
			}
		}
	case "todo":
		c.todo(rest)
	default:
		c.printf("Unknown command %q. Type help.\n", cmd)
	}
	return false
}

func (c *Console) todo(args string) {
	sub, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	switch sub {
	case "", "list":
	case "add":
		if _, err := c.board.AddTask(rest); err != nil {
			c.printf("Error: %v\n", err)
			return
		}
	case "check":
		id, err := strconv.Atoi(rest)
		if err != nil {
			c.printf("Usage: todo check <id>\n")
			return
		}
		if err := c.board.Check(id); err != nil {
			c.printf("Error: %v\n", err)
			return
		}
	default:
		c.printf("Usage: todo [add <text> | check <id>]\n")
		return
	}
	tasks := c.board.Tasks()
	if len(tasks) == 0 {
		c.printf("No tasks.\n")
		return
	}
	for _, t := range tasks {
		c.printf("%s\n", t.Line())
	}
}
