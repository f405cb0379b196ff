package main

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

const contentPreview = 40

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	what := flag.String("what", "messages", "What to list: users or messages")
	unreadFor := flag.String("unread", "", "Only list unread messages received by this user id")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	switch *what {
	case "users":
		err = printUsers(os.Stdout, repositories.NewUserRepository(db))
	case "messages":
		err = printMessages(os.Stdout, repositories.NewMessageRepository(db), domain.UserID(*unreadFor))
	default:
		err = fmt.Errorf("unknown listing %q", *what)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func printUsers(out io.Writer, users repositories.IUserRepository) error {
	all, err := users.ListUsers()
	if err != nil {
		return err
	}
	table := newTable(out, "ID", "Username", "Status", "Created")
	for _, user := range all {
		table.Append([]string{
			string(user.ID),
			user.Username,
			string(user.Status),
			user.CreatedAt.Format(time.DateTime),
		})
	}
	table.Render()
	return nil
}

func printMessages(out io.Writer, messages repositories.IMessageRepository, unreadFor domain.UserID) error {
	var list []domain.Message
	var err error
	if unreadFor.IsEmpty() {
		list, err = messages.ListAll()
	} else {
		list, err = messages.ListUnread(unreadFor)
	}
	if err != nil {
		return err
	}

	table := newTable(out, "ID", "Sender", "Receiver", "Read", "Created", "Content")
	for _, message := range list {
		table.Append([]string{
			message.ID.String()[:8],
			string(message.SenderID),
			string(message.ReceiverID),
			strconv.FormatBool(message.IsRead),
			message.CreatedAt.Format(time.DateTime),
			preview(message.Content),
		})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func preview(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if len([]rune(content)) <= contentPreview {
		return content
	}
	return string([]rune(content)[:contentPreview]) + "…"
}

// openDB opens the store read-only so it can be inspected while the relay runs.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
