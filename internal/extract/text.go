package extract

import (
	"bytes"
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// legacyEncodings are tried in order when content is not valid UTF-8.
// GB2312 is decoded with GBK, its superset.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
	{"gbk", simplifiedchinese.GBK},
	{"gb2312", simplifiedchinese.GBK},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractPlain(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, _ := DecodeText(b)
	return text, nil
}

// DecodeText decodes b as UTF-8, then each legacy encoding in turn, and
// finally as UTF-8 with invalid sequences replaced. It never fails and
// reports the encoding that was used.
func DecodeText(b []byte) (string, string) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b), "utf-8"
	}
	for _, le := range legacyEncodings {
		out, err := le.enc.NewDecoder().Bytes(b)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), le.name
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), "utf-8-lossy"
}
