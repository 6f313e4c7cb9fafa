package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

func init() {
	// Encodings phone export tools are known to write
	charset.RegisterEncoding("shift_jis", japanese.ShiftJIS)
	charset.RegisterEncoding("sjis", japanese.ShiftJIS)
	charset.RegisterEncoding("cp932", japanese.ShiftJIS)
	charset.RegisterEncoding("windows-31j", japanese.ShiftJIS)
	charset.RegisterEncoding("euc-jp", japanese.EUCJP)
	charset.RegisterEncoding("iso-2022-jp", japanese.ISO2022JP)
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
}

// ReadText reads r and decodes it from the named charset to UTF-8.
// An empty name means UTF-8. A leading byte order mark is dropped.
func ReadText(r io.Reader, charsetName string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(charsetName))
	if name != "" && name != "utf-8" && name != "utf8" {
		decoded, err := charset.Reader(name, r)
		if err != nil {
			return "", fmt.Errorf("unsupported charset %q: %w", charsetName, err)
		}
		r = decoded
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimPrefix(buf.String(), "\uFEFF"), nil
}

// ParseVCF reads a .vcf export and returns its contacts
func ParseVCF(r io.Reader, charsetName string) ([]Contact, error) {
	text, err := ReadText(r, charsetName)
	if err != nil {
		return nil, err
	}
	return ParseContacts(text), nil
}

// ParseVMG reads a .vmg export and returns its messages
func ParseVMG(r io.Reader, charsetName string, loc *time.Location) ([]Message, error) {
	text, err := ReadText(r, charsetName)
	if err != nil {
		return nil, err
	}
	return ParseMessages(text, loc), nil
}

// ParseVCFFile opens and parses a .vcf file
func ParseVCFFile(filePath, charsetName string) ([]Contact, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseVCF(f, charsetName)
}

// ParseVMGFile opens and parses a .vmg file
func ParseVMGFile(filePath, charsetName string, loc *time.Location) ([]Message, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseVMG(f, charsetName, loc)
}

// ParseFileTree opens a file and returns its raw block tree for the given
// root container
func ParseFileTree(filePath, charsetName, container string) ([]*Object, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	text, err := ReadText(f, charsetName)
	if err != nil {
		return nil, err
	}
	return Parse(text, container), nil
}
