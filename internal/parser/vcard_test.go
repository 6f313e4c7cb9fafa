package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedVMSG = `BEGIN:VMSG
VERSION:1.1
X-IRMC-STATUS:READ
X-IRMC-BOX:INBOX
X-IRMC-TYPE:SMS
BEGIN:VCARD
TEL:111
END:VCARD
BEGIN:VENV
BEGIN:VCARD
TEL:222
END:VCARD
BEGIN:VENV
BEGIN:VBODY
Date:2020-01-01T00:00:00
Hello
END:VBODY
END:VENV
END:VENV
END:VMSG
`

// TestParse_SingleBlock tests that only the requested container is returned
func TestParse_SingleBlock(t *testing.T) {
	text := "BEGIN:VCARD\nVERSION:2.1\nFN:Alice\nEND:VCARD\n"

	objs := Parse(text, "VCARD")
	require.Len(t, objs, 1)
	assert.Equal(t, "Alice", objs[0].Text("FN"))
	assert.Equal(t, "2.1", objs[0].Text("VERSION"))

	assert.Empty(t, Parse(text, "VMSG"), "Other container names should yield nothing")
}

// TestParse_DefaultContainer tests that an empty container means VCARD
func TestParse_DefaultContainer(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nFN:Bob\nEND:VCARD", "")
	require.Len(t, objs, 1)
	assert.Equal(t, "Bob", objs[0].Text("FN"))
}

// TestParse_PropertyWithParams tests meta parsing of KEY;P=V;FLAG
func TestParse_PropertyWithParams(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nTEL;TYPE=CELL;PREF:123-456\nEND:VCARD", ContainerVCard)
	require.Len(t, objs, 1)

	tel, ok := objs[0].Property("TEL")
	require.True(t, ok)
	assert.Equal(t, map[string]Param{
		"TYPE": {Value: "CELL"},
		"PREF": {Flag: true},
	}, tel.Meta)
	assert.Equal(t, "123-456", tel.Value)
	assert.False(t, tel.Multi())
}

// TestParse_MultiValue tests that ';' in a value splits it into Values
func TestParse_MultiValue(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		value  string
		values []string
	}{
		{name: "three parts", line: "N:a;b;c", values: []string{"a", "b", "c"}},
		{name: "single part", line: "N:a", value: "a"},
		{name: "empty parts kept", line: "N:;Taro;;;", values: []string{"", "Taro", "", "", ""}},
		{name: "colon in value", line: "URL:http://example.com", value: "http://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs := Parse("BEGIN:VCARD\n"+tt.line+"\nEND:VCARD", ContainerVCard)
			require.Len(t, objs, 1)

			n, ok := objs[0].Property(strings.SplitN(tt.line, ":", 2)[0])
			require.True(t, ok)
			if tt.values != nil {
				assert.True(t, n.Multi())
				assert.Equal(t, tt.values, n.Values)
				assert.Empty(t, n.Value)
				assert.Empty(t, objs[0].Text("N"), "Multi-valued properties have no single value")
			} else {
				assert.False(t, n.Multi())
				assert.Nil(t, n.Values)
				assert.Equal(t, tt.value, n.Value)
			}
		})
	}
}

// TestParse_MetaEdgeCases tests the dialect's parameter quirks
func TestParse_MetaEdgeCases(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nNOTE;ENCODING=;CHARSET=SHIFT_JIS;X=a=b:hi\nEND:VCARD", ContainerVCard)
	require.Len(t, objs, 1)

	note, ok := objs[0].Property("NOTE")
	require.True(t, ok)
	assert.Equal(t, Param{Flag: true}, note.Meta["ENCODING"], "Empty parameter value reads as a flag")
	assert.Equal(t, Param{Value: "SHIFT_JIS"}, note.Meta["CHARSET"])
	assert.Equal(t, Param{Value: "a"}, note.Meta["X"])
}

// TestParse_MetaExtraEquals tests values cut at the second '='
func TestParse_MetaExtraEquals(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nX;A=a=b;B=:v\nEND:VCARD", ContainerVCard)
	require.Len(t, objs, 1)

	x, ok := objs[0].Property("X")
	require.True(t, ok)
	assert.Equal(t, map[string]Param{
		"A": {Value: "a"},
		"B": {Flag: true},
	}, x.Meta)
	assert.Equal(t, "v", x.Value)
}

// TestParse_NoMetaIsNil tests that plain properties carry no meta map
func TestParse_NoMetaIsNil(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nFN:Alice\nEND:VCARD", ContainerVCard)
	require.Len(t, objs, 1)

	fn, ok := objs[0].Property("FN")
	require.True(t, ok)
	assert.Nil(t, fn.Meta)
}

// TestParse_Nesting tests the nested VMSG layout
func TestParse_Nesting(t *testing.T) {
	objs := Parse(nestedVMSG, ContainerVMsg)
	require.Len(t, objs, 1)
	msg := objs[0]

	assert.Equal(t, "111", msg.Lookup("VCARD").Text("TEL"))
	assert.Equal(t, "222", msg.Lookup("VENV", "VCARD").Text("TEL"))
	assert.Equal(t, "SMS", msg.Text("X-IRMC-TYPE"))

	raw, ok := msg.Lookup("VENV", "VENV").Raw(RawKey)
	require.True(t, ok)
	assert.Equal(t, "Date:2020-01-01T00:00:00\nHello\n", raw)
}

// TestParse_RawCaptureFidelity tests that VBODY lines are never tokenized
func TestParse_RawCaptureFidelity(t *testing.T) {
	text := strings.Join([]string{
		"BEGIN:VMSG",
		"BEGIN:VBODY",
		"CHARSET=UTF-8",
		"Subject;X=1:a;b;c",
		"",
		"no colon here",
		":leading colon",
		"END:VBODY",
		"END:VMSG",
	}, "\r\n")

	objs := Parse(text, ContainerVMsg)
	require.Len(t, objs, 1)

	raw, ok := objs[0].Raw(RawKey)
	require.True(t, ok)
	assert.Equal(t, "CHARSET=UTF-8\nSubject;X=1:a;b;c\n\nno colon here\n:leading colon\n", raw)
	_, isProp := objs[0].Property("Subject")
	assert.False(t, isProp, "Captured lines must not become properties")
}

// TestParse_RawTargetSurvivesStackChanges tests that raw lines keep going to
// the block that opened VBODY
func TestParse_RawTargetSurvivesStackChanges(t *testing.T) {
	text := "BEGIN:VMSG\nBEGIN:VBODY\nfirst\nBEGIN:VENV\nsecond\nEND:VENV\nthird\nEND:VBODY\nEND:VMSG"

	objs := Parse(text, ContainerVMsg)
	require.Len(t, objs, 1)

	raw, ok := objs[0].Raw(RawKey)
	require.True(t, ok)
	assert.Equal(t, "first\nsecond\nthird\n", raw)

	env, ok := objs[0].Object("VENV")
	require.True(t, ok)
	_, hasRaw := env.Raw(RawKey)
	assert.False(t, hasRaw)
}

// TestParse_UnterminatedVBody tests that text captured up to EOF is kept
func TestParse_UnterminatedVBody(t *testing.T) {
	objs := Parse("BEGIN:VMSG\nBEGIN:VBODY\nDate:x\nbody", ContainerVMsg)
	require.Len(t, objs, 1)

	raw, ok := objs[0].Raw(RawKey)
	require.True(t, ok)
	assert.Equal(t, "Date:x\nbody\n", raw)
}

// TestParse_LineTerminators tests \r\n, \r and \n
func TestParse_LineTerminators(t *testing.T) {
	for name, sep := range map[string]string{"CRLF": "\r\n", "CR": "\r", "LF": "\n"} {
		t.Run(name, func(t *testing.T) {
			text := strings.Join([]string{"BEGIN:VCARD", "FN:A", "TEL:1", "END:VCARD"}, sep)
			objs := Parse(text, ContainerVCard)
			require.Len(t, objs, 1)
			assert.Equal(t, "A", objs[0].Text("FN"))
			assert.Equal(t, "1", objs[0].Text("TEL"))
		})
	}
}

// TestParse_DroppedLines tests that unusable lines are ignored
func TestParse_DroppedLines(t *testing.T) {
	text := "FN:outside\nBEGIN:VCARD\n\nno colon\n:empty key\nEMPTY:\nFN:inside\nEND:VCARD\nTEL:after"

	objs := Parse(text, ContainerVCard)
	require.Len(t, objs, 1)
	assert.Equal(t, []string{"FN"}, objs[0].Keys())
	assert.Equal(t, "inside", objs[0].Text("FN"))
}

// TestParse_LaterKeyOverwrites tests that duplicate keys keep the last value
func TestParse_LaterKeyOverwrites(t *testing.T) {
	objs := Parse("BEGIN:VCARD\nTEL;HOME:1\nTEL;CELL:2\nEND:VCARD", ContainerVCard)
	require.Len(t, objs, 1)

	tel, ok := objs[0].Property("TEL")
	require.True(t, ok)
	assert.Equal(t, "2", tel.Value)
	assert.Equal(t, map[string]Param{"CELL": {Flag: true}}, tel.Meta)
}

// TestParse_MultipleRoots tests ordering of several top-level blocks
func TestParse_MultipleRoots(t *testing.T) {
	text := "BEGIN:VCARD\nFN:1\nEND:VCARD\nBEGIN:VCARD\nFN:2\nEND:VCARD\nBEGIN:VCARD\nFN:3\nEND:VCARD\n"

	objs := Parse(text, ContainerVCard)
	require.Len(t, objs, 3)
	for i, obj := range objs {
		assert.Equal(t, string(rune('1'+i)), obj.Text("FN"))
	}
}

// TestParse_MissingEnd tests that a missing END degrades into a partial tree
func TestParse_MissingEnd(t *testing.T) {
	text := "BEGIN:VMSG\nBEGIN:VENV\nTEL:1\nEND:VMSG\nX:2"

	objs := Parse(text, ContainerVMsg)
	require.Len(t, objs, 1)
	// END:VMSG closed VENV, so X lands on the root
	assert.Equal(t, "1", objs[0].Lookup("VENV").Text("TEL"))
	assert.Equal(t, "2", objs[0].Text("X"))
}

// TestParse_NestedContainerIsRoot tests that a nested BEGIN of the container
// name also starts a new root
func TestParse_NestedContainerIsRoot(t *testing.T) {
	text := "BEGIN:VMSG\nBEGIN:VCARD\nTEL:1\nEND:VCARD\nEND:VMSG"

	objs := Parse(text, ContainerVCard)
	require.Len(t, objs, 1)
	assert.Equal(t, "1", objs[0].Text("TEL"))
}

// TestParse_CaseSensitive tests exact BEGIN/END comparison
func TestParse_CaseSensitive(t *testing.T) {
	assert.Empty(t, Parse("BEGIN:vcard\nFN:x\nEND:vcard", ContainerVCard))
	assert.Empty(t, Parse("begin:VCARD\nFN:x\nend:VCARD", ContainerVCard))
}

// TestParse_EmptyInput tests that empty or container-less input yields nothing
func TestParse_EmptyInput(t *testing.T) {
	assert.Empty(t, Parse("", ContainerVCard))
	assert.Empty(t, Parse("\n\n\r\n", ContainerVCard))
	assert.Empty(t, Parse("FN:Alice\nTEL:1", ContainerVCard))
	assert.Empty(t, Parse("END:VCARD\nEND:VCARD", ContainerVCard))
}

// TestParse_Deterministic tests that parsing twice gives equal trees
func TestParse_Deterministic(t *testing.T) {
	first, err := json.Marshal(Parse(nestedVMSG, ContainerVMsg))
	require.NoError(t, err)
	second, err := json.Marshal(Parse(nestedVMSG, ContainerVMsg))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

// TestObject_MarshalJSON tests the legacy tree shape
func TestObject_MarshalJSON(t *testing.T) {
	text := "BEGIN:VMSG\nTEL;TYPE=CELL;PREF:1\nN:a;b\nBEGIN:VENV\nBEGIN:VBODY\nhi\nEND:VBODY\nEND:VENV\nEND:VMSG"

	objs := Parse(text, ContainerVMsg)
	require.Len(t, objs, 1)

	out, err := json.Marshal(objs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"TEL": {"meta": {"TYPE": "CELL", "PREF": true}, "value": "1"},
		"N": {"values": ["a", "b"]},
		"VENV": {"VBODY": "hi\n"}
	}`, string(out))
}

// TestObject_NilSafeAccessors tests lookups through missing blocks
func TestObject_NilSafeAccessors(t *testing.T) {
	var missing *Object
	assert.Equal(t, "", missing.Text("TEL"))
	assert.Nil(t, missing.Lookup("VENV"))
	assert.Equal(t, 0, missing.Len())

	objs := Parse("BEGIN:VMSG\nTEL:1\nEND:VMSG", ContainerVMsg)
	require.Len(t, objs, 1)
	assert.Nil(t, objs[0].Lookup("VENV", "VCARD"))
	assert.Nil(t, objs[0].Lookup("TEL"), "Properties are not blocks")
	_, ok := objs[0].Raw("TEL")
	assert.False(t, ok)
}
