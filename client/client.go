package main

import (
	"bufio"
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:3000"`
	Username  string `env:"CHAT_USERNAME,required=true"`
	Password  string `env:"CHAT_PASSWORD,required=true"`
	LogLevel  string `env:"LOG_LEVEL,default=WARN"`
}

var (
	mine    = color.New(color.FgGreen, color.OpBold)
	theirs  = color.New(color.FgCyan, color.OpBold)
	notice  = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, failure.Render(fmt.Sprintf("Client error: %v", err)))
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newAPI(config.ServerURL)
	me, err := a.login(ctx, config.Username, config.Password)
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}

	directory := newDirectory()
	if err := directory.refresh(ctx, a); err != nil {
		return exitRuntime, err
	}

	socketURL, err := a.socketURL()
	if err != nil {
		return exitConfig, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, socketURL, a.authHeader())
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", socketURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	var writeMu sync.Mutex
	send := func(event string, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(map[string]any{"event": event, "data": json.RawMessage(raw)})
	}

	if err := send("userOnline", me.UserID); err != nil {
		return exitRuntime, fmt.Errorf("announce failed: %w", err)
	}
	fmt.Println(notice.Render(fmt.Sprintf(">>> Connected as %s (@username message, /users, /quit)", config.Username)))
	printUnread(ctx, log, a, directory)

	received := make(chan error, 1)
	go func() { received <- readLoop(ctx, log, conn, a, directory) }()

	lines := make(chan string)
	go scanLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-received:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case raw, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			line, err := parseLine(raw)
			if err != nil {
				fmt.Println(failure.Render(err.Error()))
				continue
			}
			switch line.Command {
			case commandQuit:
				return exitOK, nil
			case commandUsers:
				if err := directory.refresh(ctx, a); err != nil {
					fmt.Println(failure.Render(err.Error()))
					continue
				}
				directory.print()
			case commandSend:
				receiver, ok := directory.idOf(line.Recipient)
				if !ok {
					// The account may have been created after the last refresh
					_ = directory.refresh(ctx, a)
					if receiver, ok = directory.idOf(line.Recipient); !ok {
						fmt.Println(failure.Render(fmt.Sprintf("unknown user %q", line.Recipient)))
						continue
					}
				}
				cmd := domain.SendCommand{SenderID: me.UserID, ReceiverID: receiver, Content: line.Text}
				if err := send("sendMessage", cmd); err != nil {
					return exitRuntime, fmt.Errorf("send failed: %w", err)
				}
				fmt.Printf("%s %s\n", mine.Render("me -> "+line.Recipient+":"), line.Text)
			}
		}
	}
}

// readLoop prints every delivery and acknowledges it as read.
func readLoop(ctx context.Context, log *slog.Logger, conn *websocket.Conn, a *api, directory *directory) error {
	for {
		var frame struct {
			Event string         `json:"event"`
			Data  domain.Message `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		if frame.Event != domain.EventReceiveMessage {
			log.Debug("Ignoring event", "event", frame.Event)
			continue
		}
		printMessage(frame.Data.CreatedAt, directory.nameOf(frame.Data.SenderID), frame.Data.Content)
		if err := a.markRead(ctx, frame.Data.ID.String()); err != nil {
			log.Warn("Could not mark message read", "message_id", frame.Data.ID, "error", err)
		}
	}
}

func printUnread(ctx context.Context, log *slog.Logger, a *api, directory *directory) {
	views, err := a.unread(ctx)
	if err != nil {
		log.Warn("Could not load unread messages", "error", err)
		return
	}
	if len(views) == 0 {
		return
	}
	fmt.Println(notice.Render(fmt.Sprintf(">>> %d unread message(s)", len(views))))
	// Listings are newest first
	for i := len(views) - 1; i >= 0; i-- {
		view := views[i]
		printMessage(view.CreatedAt, view.Sender.Username, view.Content)
		if err := a.markRead(ctx, view.ID.String()); err != nil {
			log.Warn("Could not mark message read", "message_id", view.ID, "error", err)
		}
	}
}

func printMessage(at time.Time, from, content string) {
	fmt.Printf("[%s] %s %s\n", at.Local().Format(time.TimeOnly), theirs.Render(from+":"), content)
}

func scanLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}
