package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// CreateConversation inserts conv and returns it with the assigned id.
func (s *conversationStore) CreateConversation(
	ctx context.Context,
	conv domain.Conversation,
) (domain.Conversation, error) {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = s.store.now().UTC()
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (document_key, document_name, document_url, created_at)
		VALUES (?, ?, ?, ?)
	`, conv.DocumentKey, conv.DocumentName, conv.DocumentURL, conv.CreatedAt.UnixNano())
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("inserting conversation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("reading conversation id: %w", err)
	}
	conv.ID = id
	return conv, nil
}

// GetConversation retrieves a conversation by id.
func (s *conversationStore) GetConversation(ctx context.Context, id int64) (domain.Conversation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_key, document_name, document_url, created_at
		FROM conversations WHERE id = ?
	`, id)
	return scanConversation(row)
}

// ListConversations returns all conversations, newest first.
func (s *conversationStore) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_key, document_name, document_url, created_at
		FROM conversations
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var result []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}

// AppendMessages stores msgs in one transaction. Each message gets a
// timestamp one microsecond after the previous so listing keeps their order.
func (s *conversationStore) AppendMessages(ctx context.Context, conversationID int64, msgs ...domain.Message) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations WHERE id = ?", conversationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking conversation: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := s.store.now().UTC()
	for i, m := range msgs {
		if !m.Role.IsValid() {
			return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, m.Role)
		}
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		if _, err := stmt.ExecContext(ctx, conversationID, string(m.Role), m.Content, createdAt.UnixNano()); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	return tx.Commit()
}

// ListMessages returns a conversation's messages in creation order.
func (s *conversationStore) ListMessages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at, id
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = domain.Role(role)
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, m)
	}
	return result, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var conv domain.Conversation
	var createdAt int64
	err := row.Scan(&conv.ID, &conv.DocumentKey, &conv.DocumentName, &conv.DocumentURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("scanning conversation: %w", err)
	}
	conv.CreatedAt = time.Unix(0, createdAt).UTC()
	return conv, nil
}
