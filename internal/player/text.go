package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode"

	"github.com/pixil98/mudsync/internal/commands"
	"github.com/pixil98/mudsync/internal/display"
	"github.com/pixil98/mudsync/internal/game"
)

const maxLoginTries = 3

// textEncoder writes events as wrapped lines for telnet and ssh clients.
type textEncoder struct {
	w io.Writer
}

func (e *textEncoder) Encode(ev game.Event) error {
	text := display.Format(ev)
	if text == "" {
		return nil
	}
	_, err := io.WriteString(e.w, display.Wrap(text)+"\n")
	return err
}

func (e *textEncoder) Print(text string) error {
	_, err := io.WriteString(e.w, text)
	return err
}

// textSource reads typed lines. Until the connection is logged in it runs the login prompt
// instead of parsing commands.
type textSource struct {
	r      *bufio.Reader
	conn   *Conn
	bound  func() bool
	logins int
}

func (s *textSource) Next() (commands.Command, error) {
	if !s.bound() {
		return s.login()
	}

	for {
		s.conn.Print("> ")
		line, err := readLine(s.r)
		if err != nil {
			return commands.Command{}, err
		}
		if cmd := commands.Parse(line); cmd.Kind != "" {
			return cmd, nil
		}
	}
}

func (s *textSource) login() (commands.Command, error) {
	if s.logins >= maxLoginTries {
		s.conn.Print("Too many failed logins.\n")
		return commands.Command{}, io.EOF
	}
	if s.logins == 0 {
		s.conn.Print("Welcome!\n")
	}
	s.logins++

	username, err := prompt(s.r, s.conn, "By what name do you wish to be known? ", withValidator(validName), withMaxTries(maxLoginTries))
	if err != nil {
		return commands.Command{}, err
	}
	password, err := prompt(s.r, s.conn, "Password: ")
	if err != nil {
		return commands.Command{}, err
	}

	return commands.Command{Kind: commands.KindLogin, Username: username, Password: password}, nil
}

func validName(str string) (bool, string) {
	if len(str) == 0 {
		return false, "Invalid name, please try another.\n"
	}
	for _, r := range str {
		if !unicode.IsLetter(r) {
			return false, "Invalid name, please try another.\n"
		}
	}
	return true, ""
}

// ServeText runs a session on a line-oriented transport such as telnet or ssh.
func (m *Manager) ServeText(ctx context.Context, rw io.ReadWriteCloser) error {
	conn := m.NewConn(&textEncoder{w: rw}, rw)
	src := &textSource{
		r:    bufio.NewReader(rw),
		conn: conn,
		bound: func() bool {
			_, ok := m.handler.Registry.Lookup(conn.Id())
			return ok
		},
	}

	if err := m.Serve(ctx, conn, src); err != nil {
		return fmt.Errorf("text session %s: %w", conn.Id(), err)
	}
	return nil
}
