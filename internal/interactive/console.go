package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Console drives a Session over a line-oriented terminal.
type Console struct {
	session *Session
	in      *bufio.Scanner
	out     io.Writer
	title   string
	banner  []string

	heading func(a ...interface{}) string
	prompt  func(a ...interface{}) string
	success func(a ...interface{}) string
	failure func(a ...interface{}) string
}

// NewConsole returns a console reading choices from in. banner lines are
// printed under the title on every start screen.
func NewConsole(session *Session, in io.Reader, out io.Writer, title string, banner ...string) *Console {
	return &Console{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
		title:   title,
		banner:  banner,
		heading: color.New(color.FgCyan, color.Bold).SprintFunc(),
		prompt:  color.New(color.FgYellow).SprintFunc(),
		success: color.New(color.FgGreen, color.Bold).SprintFunc(),
		failure: color.New(color.FgRed).SprintFunc(),
	}
}

// Run loops until the input ends, the user quits or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printf("\n%s\n", c.heading(c.title))
		for _, line := range c.banner {
			c.printf("%s\n", line)
		}

		for c.session.State() == AwaitingSelection {
			field := c.nextField()
			choice, ok := c.ask(field)
			if !ok {
				return c.in.Err()
			}
			if err := c.session.Select(field.Name, choice); err != nil {
				c.printf("%s %v\n", c.failure("✗"), err)
			}
		}

		price, err := c.session.Submit()
		if err != nil {
			return err
		}
		c.printf("\n%s %s\n", c.success("Predicted Price:"), strconv.FormatFloat(price, 'f', 2, 64))

		c.printf("%s ", c.prompt("Restart? [y/N]:"))
		if !c.in.Scan() {
			return c.in.Err()
		}
		if answer := strings.ToLower(strings.TrimSpace(c.in.Text())); answer != "y" && answer != "yes" {
			return nil
		}
		if err := c.session.Restart(); err != nil {
			return err
		}
	}
}

func (c *Console) nextField() Field {
	pending := c.session.Pending()
	for _, f := range c.session.Fields() {
		if f.Name == pending[0] {
			return f
		}
	}
	return Field{}
}

// ask shows the options of f and reads one choice. Answers may be the
// option number or its label. ok is false at end of input or on "q".
func (c *Console) ask(f Field) (string, bool) {
	for {
		c.printf("\n%s\n", c.prompt("Select "+f.Name+":"))
		for i, o := range f.Options {
			c.printf("  %d) %s\n", i+1, o.Label)
		}
		c.printf("> ")
		if !c.in.Scan() {
			return "", false
		}
		answer := strings.TrimSpace(c.in.Text())
		if answer == "q" || answer == "quit" {
			return "", false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(f.Options) {
			return f.Options[n-1].Label, true
		}
		for _, o := range f.Options {
			if strings.EqualFold(o.Label, answer) {
				return o.Label, true
			}
		}
		c.printf("%s %q is not a valid choice\n", c.failure("✗"), answer)
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}
