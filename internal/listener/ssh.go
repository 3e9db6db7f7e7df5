package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"
)

// SshListener serves the text transport over ssh session channels. Clients are not authenticated
// by ssh; players log in through the game prompt.
type SshListener struct {
	host   string
	port   uint16
	cm     *ConnectionManager
	config *ssh.ServerConfig
}

func NewSshListener(host string, port uint16, cm *ConnectionManager, hostKey ssh.Signer) *SshListener {
	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(hostKey)

	return &SshListener{
		host:   host,
		port:   port,
		cm:     cm,
		config: config,
	}
}

func (l *SshListener) Start(ctx context.Context) error {
	addr := net.JoinHostPort(l.host, strconv.Itoa(int(l.port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	slog.InfoContext(ctx, "listening for ssh", "addr", addr)

	// Sessions outlive ctx long enough to flush; they are cancelled once accepting stops.
	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	defer func() {
		cancelConns()
		wg.Wait()
	}()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.serveConn(connCtx, conn)
		}()
	}
}

func (l *SshListener) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	log := slog.With("remote", conn.RemoteAddr().String())

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.config)
	if err != nil {
		log.DebugContext(ctx, "ssh handshake failed", "error", err)
		return
	}
	defer sshConn.Close()
	log.InfoContext(ctx, "ssh connection established", "user", sshConn.User())

	// Closing the connection ends the channel loop below.
	stop := context.AfterFunc(ctx, func() { _ = sshConn.Close() })
	defer stop()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			log.WarnContext(ctx, "accepting ssh channel", "error", err)
			continue
		}

		if awaitShell(ctx, requests) {
			l.cm.AcceptConnection(ctx, newCRLFConn(ch))
		}
		_ = ch.Close()
	}
}

// awaitShell answers channel requests until the client asks for a shell, which is when ssh
// clients start forwarding input. It reports false if ctx ends or the channel closes first.
func awaitShell(ctx context.Context, requests <-chan *ssh.Request) bool {
	shell, gone := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(gone)
		opened := false
		for req := range requests {
			switch req.Type {
			case "shell":
				_ = req.Reply(!opened, nil)
				if !opened {
					opened = true
					close(shell)
				}
			default:
				// pty-req included: without a pty the client keeps local echo and line editing.
				_ = req.Reply(false, nil)
			}
		}
	}()

	select {
	case <-shell:
		return true
	case <-gone:
		select {
		case <-shell:
			return true
		default:
			return false
		}
	case <-ctx.Done():
		return false
	}
}
