package segmenter

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeExample(t *testing.T) {
	tokens, err := Decode("你好`ni3 hao3$！`")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertTokens(t, []Token{{"你好", "ni3 hao3"}, {"！", ""}}, tokens)
}

func TestDecodeEmpty(t *testing.T) {
	tokens, err := Decode("")
	if err != nil || tokens != nil {
		t.Fatalf("expected nil, got %v %v", tokens, err)
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []Token{{"学生", "xue2 sheng5"}, {"Hello ", ""}, {"。", ""}}
	payload, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(string(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertTokens(t, in, out)
}

func TestEncodeRejectsDelimiter(t *testing.T) {
	if _, err := Encode([]Token{{"a$b", ""}}); err == nil {
		t.Fatalf("expected an error for a phrase containing $")
	}
}

func TestFrameHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, []byte("你好`ni3 hao3")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	header := buf.String()[:HeaderSize]
	if strings.TrimRight(header, " ") != "15" {
		t.Fatalf("unexpected header %q", header)
	}
	n, err := readHeader(&buf)
	if err != nil || n != 15 {
		t.Fatalf("read header: %d %v", n, err)
	}
	payload, err := readPayload(&buf, n)
	if err != nil || payload != "你好`ni3 hao3" {
		t.Fatalf("read payload: %q %v", payload, err)
	}
}

func TestReadHeaderAcceptsZeroPadding(t *testing.T) {
	raw := "42" + strings.Repeat("\x00", HeaderSize-2)
	n, err := readHeader(strings.NewReader(raw))
	if err != nil || n != 42 {
		t.Fatalf("expected 42, got %d %v", n, err)
	}
}

func TestReadPayloadRejectsInvalidUTF8(t *testing.T) {
	if _, err := readPayload(bytes.NewReader([]byte{0xff, 0xfe}), 2); err == nil {
		t.Fatalf("expected invalid UTF-8 error")
	}
}
