package db

// Parsed records are stored alongside the file list; archive files are
// small and the conversation view needs them sorted and filtered.
// The raw block tree is parsed from the file on demand.
const schema = `
-- One row per indexed .vcf/.vmg file
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT UNIQUE NOT NULL,
    kind TEXT NOT NULL,          -- 'contacts' or 'messages'
    file_size INTEGER,
    record_count INTEGER DEFAULT 0,
    indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL,
    formatted_name TEXT,
    sort_string TEXT,
    tel TEXT,
    FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL,
    position INTEGER NOT NULL,   -- order within the file
    type TEXT,                   -- X-IRMC-TYPE
    box TEXT,                    -- X-IRMC-BOX
    sender TEXT,
    recipient TEXT,
    partner TEXT,                -- sender for INBOX, recipient otherwise
    date DATETIME,
    body TEXT,
    FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
);

-- Full-text search over message bodies
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    body,
    partner,
    content='messages',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, body, partner)
    VALUES (new.id, new.body, new.partner);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body, partner)
    VALUES ('delete', old.id, old.body, old.partner);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body, partner)
    VALUES ('delete', old.id, old.body, old.partner);
    INSERT INTO messages_fts(rowid, body, partner)
    VALUES (new.id, new.body, new.partner);
END;

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_kind ON files(kind);
CREATE INDEX IF NOT EXISTS idx_contacts_tel ON contacts(tel);
CREATE INDEX IF NOT EXISTS idx_contacts_file_id ON contacts(file_id);
CREATE INDEX IF NOT EXISTS idx_messages_file_partner ON messages(file_id, partner, date);
CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date);
`
