package db

import (
	"fmt"
	"testing"
	"time"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// CreateTestContact creates a contact with the given name and number
func CreateTestContact(name, tel string) *Contact {
	return &Contact{
		FormattedName: name,
		Tel:           tel,
	}
}

// CreateTestMessage creates an SMS with partner derived from the box
func CreateTestMessage(box, from, to, body string, date time.Time) *Message {
	partner := to
	if box == "INBOX" {
		partner = from
	}
	return &Message{
		Type:      "SMS",
		Box:       box,
		Sender:    from,
		Recipient: to,
		Partner:   partner,
		Date:      NewNullTime(date),
		Body:      body,
	}
}

// InsertTestContacts inserts contacts under a generated .vcf path
func InsertTestContacts(t *testing.T, db *DB, name string, contacts []*Contact) *File {
	t.Helper()

	f := &File{FilePath: fmt.Sprintf("test/%s.vcf", name)}
	if _, err := db.InsertContactsFile(f, contacts); err != nil {
		t.Fatalf("Failed to insert test contacts: %v", err)
	}
	return f
}

// InsertTestMessages inserts messages under a generated .vmg path
func InsertTestMessages(t *testing.T, db *DB, name string, msgs []*Message) *File {
	t.Helper()

	f := &File{FilePath: fmt.Sprintf("test/%s.vmg", name)}
	if _, err := db.InsertMessagesFile(f, msgs); err != nil {
		t.Fatalf("Failed to insert test messages: %v", err)
	}
	return f
}
