package inbox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainLiteral = "From: Amy <amy@example.com>\r\n" +
	"Sender: amy@example.com\r\n" +
	"Subject: =?UTF-8?Q?Caf=C3=A9_plans?=\r\n" +
	"Date: Tue, 14 Nov 2023 22:13:20 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See you\r\n   at   noon.\r\n"

const htmlLiteral = "From: news@shop.example\r\n" +
	"Subject: Deals\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Big&nbsp;<b>sale</b> today &amp; tomorrow</p></body></html>\r\n" +
	"--XYZ--\r\n"

func TestParseRFC822_Plain(t *testing.T) {
	raw, err := ParseRFC822("id-1", []byte(plainLiteral), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "id-1", raw.ID)
	require.NotNil(t, raw.Snippet)
	assert.Equal(t, "See you at noon.", *raw.Snippet)
	assert.Equal(t, "1700000000000", raw.InternalDate)

	subject, ok := header(raw.Headers, "subject")
	require.True(t, ok)
	assert.Equal(t, "Café plans", subject)

	email, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "Amy <amy", email.FromName)
	assert.Equal(t, int64(1700000000000), email.Date)
}

func TestParseRFC822_InternalDateWins(t *testing.T) {
	internal := time.UnixMilli(42)
	raw, err := ParseRFC822("id-1", []byte(plainLiteral), internal)
	require.NoError(t, err)
	assert.Equal(t, "42", raw.InternalDate)
}

func TestParseRFC822_HTMLOnly(t *testing.T) {
	raw, err := ParseRFC822("id-2", []byte(htmlLiteral), time.Time{})
	require.NoError(t, err)

	require.NotNil(t, raw.Snippet)
	assert.Equal(t, "Big sale today & tomorrow", *raw.Snippet)
	assert.Equal(t, "", raw.InternalDate)

	_, ok := Normalize(raw)
	assert.False(t, ok, "messages without a timestamp are dropped")
}

func TestClip(t *testing.T) {
	long := strings.Repeat("é", SnippetLength+10)
	assert.Equal(t, SnippetLength, len([]rune(clip(long))))
	assert.Equal(t, "a b", clip("  a \n\t b "))
}
