package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// extractPDF concatenates the plain text of every page in page order. The
// parser panics on some malformed inputs, so panics become errors here.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = goerr.New("pdf parser panic", goerr.V("panic", fmt.Sprint(r)))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, goerr.Wrap(err, "pdf reader")
	}

	pages = r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", 0, goerr.Wrap(err, "pdf page text", goerr.V("page", i))
		}
		b.WriteString(pageText)
	}

	return b.String(), pages, nil
}
