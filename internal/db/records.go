package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Contact is a contact record from a .vcf file
type Contact struct {
	ID            int64
	FileID        int64
	FormattedName string
	SortString    string
	Tel           string
}

// Message is a message record from a .vmg file
type Message struct {
	ID        int64
	FileID    int64
	Position  int
	Type      string
	Box       string
	Sender    string
	Recipient string
	Partner   string
	Date      NullTime
	Body      string
}

// GetDate returns the date as time.Time, or zero time if NULL
func (m *Message) GetDate() time.Time {
	if m.Date.Valid {
		return m.Date.Time
	}
	return time.Time{}
}

// Partner is a correspondent in a message file, matched to a contact when
// one has the same number
type Partner struct {
	Tel           string
	FormattedName string
	SortString    string
	MessageCount  int
	LastDate      NullTime
}

// InsertContactsFile inserts a .vcf file and its contacts in one transaction
func (db *DB) InsertContactsFile(f *File, contacts []*Contact) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	f.Kind = KindContacts
	f.RecordCount = len(contacts)
	fileID, err := insertFile(tx, f)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO contacts (file_id, formatted_name, sort_string, tel)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range contacts {
		c.FileID = fileID
		result, err := stmt.Exec(fileID, c.FormattedName, c.SortString, c.Tel)
		if err != nil {
			return 0, fmt.Errorf("failed to insert contact %q: %w", c.Tel, err)
		}
		if c.ID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.ID = fileID
	return fileID, nil
}

// InsertMessagesFile inserts a .vmg file and its messages in one transaction
func (db *DB) InsertMessagesFile(f *File, msgs []*Message) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	f.Kind = KindMessages
	f.RecordCount = len(msgs)
	fileID, err := insertFile(tx, f)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (
			file_id, position, type, box, sender, recipient, partner, date, body
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		m.FileID = fileID
		m.Position = i
		result, err := stmt.Exec(
			fileID, m.Position, m.Type, m.Box, m.Sender, m.Recipient, m.Partner, m.Date, m.Body,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert message %d: %w", i, err)
		}
		if m.ID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.ID = fileID
	return fileID, nil
}

// ListContacts retrieves every indexed contact in file order
func (db *DB) ListContacts() ([]*Contact, error) {
	rows, err := db.Query(`
		SELECT id, file_id, formatted_name, sort_string, tel
		FROM contacts
		ORDER BY file_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c := &Contact{}
		if err := rows.Scan(&c.ID, &c.FileID, &c.FormattedName, &c.SortString, &c.Tel); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// FindContactByTel returns the first indexed contact with the given number
func (db *DB) FindContactByTel(tel string) (*Contact, error) {
	c := &Contact{}
	err := db.QueryRow(`
		SELECT id, file_id, formatted_name, sort_string, tel
		FROM contacts WHERE tel = ?
		ORDER BY file_id, id LIMIT 1
	`, tel).Scan(&c.ID, &c.FileID, &c.FormattedName, &c.SortString, &c.Tel)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SuggestContacts returns up to limit distinct contacts whose name, sort
// string or number starts with prefix
func (db *DB) SuggestContacts(prefix string, limit int) ([]*Contact, error) {
	pattern := likeEscaper.Replace(strings.TrimSpace(prefix)) + "%"
	rows, err := db.Query(`
		SELECT MIN(id), MIN(file_id), formatted_name, sort_string, tel
		FROM contacts
		WHERE formatted_name LIKE ?1 ESCAPE '\'
		   OR sort_string LIKE ?1 ESCAPE '\'
		   OR tel LIKE ?1 ESCAPE '\'
		GROUP BY formatted_name, sort_string, tel
		ORDER BY formatted_name, tel
		LIMIT ?2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c := &Contact{}
		if err := rows.Scan(&c.ID, &c.FileID, &c.FormattedName, &c.SortString, &c.Tel); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// ListPartners returns the distinct non-empty partner numbers of a message
// file. Names come from the first contact with the same number; numbers
// without a contact have empty names. Ordering is left to the caller.
func (db *DB) ListPartners(fileID int64) ([]*Partner, error) {
	rows, err := db.Query(`
		SELECT
			m.partner,
			COALESCE((SELECT c.formatted_name FROM contacts c WHERE c.tel = m.partner ORDER BY c.file_id, c.id LIMIT 1), ''),
			COALESCE((SELECT c.sort_string FROM contacts c WHERE c.tel = m.partner ORDER BY c.file_id, c.id LIMIT 1), ''),
			COUNT(*),
			MAX(m.date)
		FROM messages m
		WHERE m.file_id = ? AND m.partner != ''
		GROUP BY m.partner
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	var partners []*Partner
	for rows.Next() {
		p := &Partner{}
		if err := rows.Scan(&p.Tel, &p.FormattedName, &p.SortString, &p.MessageCount, &p.LastDate); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partners: %w", err)
	}

	return partners, nil
}

const messageColumns = `id, file_id, position, type, box, sender, recipient, partner, date, body`

func scanMessage(row interface{ Scan(...interface{}) error }) (*Message, error) {
	m := &Message{}
	err := row.Scan(
		&m.ID, &m.FileID, &m.Position, &m.Type, &m.Box,
		&m.Sender, &m.Recipient, &m.Partner, &m.Date, &m.Body,
	)
	return m, err
}

// ListConversation returns the SMS messages exchanged with tel in a file,
// oldest first
func (db *DB) ListConversation(fileID int64, tel string) ([]*Message, error) {
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE file_id = ? AND partner = ? AND type = 'SMS'
		ORDER BY date ASC, position ASC
	`, fileID, tel)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return msgs, nil
}

// CountMessages returns the total number of messages
func (db *DB) CountMessages() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
