//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix = "msg:"
	involvePrefix = "involve:"
	unreadPrefix  = "unread:"
	// Seek target for a reverse scan: greater than any 19-digit padded timestamp.
	newestSeek = "9999999999999999999"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) error
	GetMessage(id uuid.UUID) (domain.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) (domain.Message, error)
	ListInvolving(user domain.UserID) ([]domain.Message, error)
	ListUnread(user domain.UserID) ([]domain.Message, error)
	ListAll() ([]domain.Message, error)
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

// DiskMessage is the stored form of a message.
type DiskMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  int64  `json:"created_at"`
}

// StoreMessage persists a message and its index entries in one transaction.
//
//	msg:{id}                              the record
//	involve:{user}:{timestamp_padded}:{id} one entry for the sender, one for the receiver
//	unread:{receiver}:{timestamp_padded}:{id} removed once the message is read
//
// The 19-digit zero padding keeps lexicographical order chronological and the id
// separates two messages stored in the same nanosecond.
// Nothing is written once ctx is done.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) error {
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		// 1. The record itself
		if err := txn.Set(messageKey(message.ID), data); err != nil {
			return err
		}
		// 2. One involvement entry per side (a note to self writes the same key twice)
		for _, user := range []domain.UserID{message.SenderID, message.ReceiverID} {
			if err := txn.Set(indexKey(involvePrefix, user, message), nil); err != nil {
				return err
			}
		}
		// 3. The unread entry, until the receiver reads it
		if !message.IsRead {
			if err := txn.Set(indexKey(unreadPrefix, message.ReceiverID, message), nil); err != nil {
				return err
			}
		}
		return claimCommit(ctx)
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) (err error) {
		message, err = readMessage(txn, id)
		return err
	})
	return message, err
}

// MarkRead flips IsRead and drops the unread index entry. Reading twice is a no-op.
func (m MessageRepository) MarkRead(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		var err error
		message, err = readMessage(txn, id)
		if err != nil {
			return err
		}
		// Already read: nothing to write, same record returned
		if message.IsRead {
			return nil
		}
		message.IsRead = true
		data, err := json.Marshal(fromMessage(message))
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set(messageKey(id), data); err != nil {
			return err
		}
		if err := txn.Delete(indexKey(unreadPrefix, message.ReceiverID, message)); err != nil {
			return err
		}
		return claimCommit(ctx)
	})
	return message, err
}

// ListInvolving returns the messages sent or received by user, newest first.
func (m MessageRepository) ListInvolving(user domain.UserID) ([]domain.Message, error) {
	return m.listIndex(involvePrefix, user)
}

// ListUnread returns the unread messages received by user, newest first.
func (m MessageRepository) ListUnread(user domain.UserID) ([]domain.Message, error) {
	return m.listIndex(unreadPrefix, user)
}

// ListAll scans every stored message in key order.
func (m MessageRepository) ListAll() ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				message, err := decodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// listIndex walks an index backwards from the newest entry and resolves each id.
func (m MessageRepository) listIndex(kind string, user domain.UserID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", kind, user))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts at the first key <= seekKey, i.e. the newest entry
		seekKey := append(append([]byte{}, prefix...), []byte(newestSeek)...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			// Index entries carry no value, the record lives under msg:{id}
			id, err := idFromIndexKey(it.Item().Key())
			if err != nil {
				return err
			}
			message, err := readMessage(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

func readMessage(txn *badger.Txn, id uuid.UUID) (domain.Message, error) {
	item, err := txn.Get(messageKey(id))
	if err != nil {
		return domain.Message{}, notFound(err, "message %s", id)
	}
	var message domain.Message
	err = item.Value(func(val []byte) error {
		message, err = decodeMessage(val)
		return err
	})
	return message, err
}

func messageKey(id uuid.UUID) []byte {
	return []byte(messagePrefix + id.String())
}

func indexKey(kind string, user domain.UserID, message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", kind, user, message.CreatedAt.UnixNano(), message.ID))
}

// idFromIndexKey reads the trailing uuid of an index key; user ids may contain ':'.
func idFromIndexKey(key []byte) (uuid.UUID, error) {
	const uuidLen = 36
	if len(key) < uuidLen {
		return uuid.Nil, fmt.Errorf("malformed index key %q", key)
	}
	return uuid.Parse(string(key[len(key)-uuidLen:]))
}

func decodeMessage(val []byte) (domain.Message, error) {
	var disk DiskMessage
	if err := json.Unmarshal(val, &disk); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal failed: %w", err)
	}
	return toMessage(disk)
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:         message.ID.String(),
		SenderID:   string(message.SenderID),
		ReceiverID: string(message.ReceiverID),
		Content:    message.Content,
		IsRead:     message.IsRead,
		CreatedAt:  message.CreatedAt.UnixNano(),
	}
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		SenderID:   domain.UserID(disk.SenderID),
		ReceiverID: domain.UserID(disk.ReceiverID),
		Content:    disk.Content,
		IsRead:     disk.IsRead,
		CreatedAt:  time.Unix(0, disk.CreatedAt).UTC(),
	}, nil
}
