// Package letters decodes text files and counts the Unicode letters in them.
package letters

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

const readBufferSize = 64 * 1024

var (
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// Count returns the number of runes in s classified as letters.
func Count(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}

// CountReader decodes r as text and counts its letters. Input is UTF-8
// unless it starts with a UTF-8, UTF-16 or UTF-32 byte order mark. Invalid
// sequences decode to U+FFFD and are not counted.
func CountReader(r io.Reader) (int, error) {
	decoded := bufio.NewReaderSize(NewDecoder(r), readBufferSize)
	count := 0
	for {
		char, _, err := decoded.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}
		if unicode.IsLetter(char) {
			count++
		}
	}
}

// CountFile reads the whole file at path and counts its letters.
func CountFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return CountReader(file)
}

// NewDecoder wraps r so reads yield UTF-8 regardless of the byte order mark
// the content starts with.
func NewDecoder(r io.Reader) io.Reader {
	buffered := bufio.NewReaderSize(r, readBufferSize)
	return transform.NewReader(buffered, decoderFor(buffered))
}

func decoderFor(buffered *bufio.Reader) transform.Transformer {
	head, _ := buffered.Peek(4)
	switch {
	case bytes.HasPrefix(head, bomUTF32LE):
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(head, bomUTF32BE):
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder()
	default:
		return xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	}
}
