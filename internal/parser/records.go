package parser

import "time"

// Box value of received messages
const BoxInbox = "INBOX"

// Contact is the part of a VCARD the viewer needs
type Contact struct {
	FormattedName string
	SortString    string
	Tel           string
}

// Message is the part of a VMSG the viewer needs
type Message struct {
	Type string
	Box  string
	From string
	To   string
	Date time.Time
	Text string
}

// Partner returns the other party's number: the sender for received
// messages, the recipient otherwise.
func (m Message) Partner() string {
	if m.Box == BoxInbox {
		return m.From
	}
	return m.To
}

// ContactSortKey returns the string contacts are ordered by
func ContactSortKey(c Contact) string {
	switch {
	case c.SortString != "":
		return c.SortString
	case c.FormattedName != "":
		return c.FormattedName
	default:
		return c.Tel
	}
}

// ContactFromObject projects a VCARD block
func ContactFromObject(obj *Object) Contact {
	return Contact{
		FormattedName: obj.Text("FN"),
		SortString:    obj.Text("SORT-STRING"),
		Tel:           obj.Text("TEL"),
	}
}

// MessageFromObject projects a VMSG block. The sender is VCARD.TEL, the
// recipient VENV.VCARD.TEL and the text comes from VENV.VENV.VBODY.
func MessageFromObject(obj *Object, loc *time.Location) Message {
	raw, _ := obj.Lookup("VENV", "VENV").Raw(RawKey)
	body := ParseBodyIn(raw, loc)
	return Message{
		Type: obj.Text("X-IRMC-TYPE"),
		Box:  obj.Text("X-IRMC-BOX"),
		From: obj.Lookup("VCARD").Text("TEL"),
		To:   obj.Lookup("VENV", "VCARD").Text("TEL"),
		Date: body.Date,
		Text: body.Body,
	}
}

// ParseContacts parses .vcf text into contacts
func ParseContacts(text string) []Contact {
	objs := Parse(text, ContainerVCard)
	contacts := make([]Contact, 0, len(objs))
	for _, obj := range objs {
		contacts = append(contacts, ContactFromObject(obj))
	}
	return contacts
}

// ParseMessages parses .vmg text into messages
func ParseMessages(text string, loc *time.Location) []Message {
	objs := Parse(text, ContainerVMsg)
	msgs := make([]Message, 0, len(objs))
	for _, obj := range objs {
		msgs = append(msgs, MessageFromObject(obj, loc))
	}
	return msgs
}
