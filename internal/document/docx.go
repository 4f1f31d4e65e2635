package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const docxBodyPart = "word/document.xml"

// extractDOCX returns the text of every body paragraph, joined by newlines.
// Paragraphs inside tables are skipped.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "docx is not a zip container")
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", goerr.New("docx has no document part", goerr.V("part", docxBodyPart))
	}

	rc, err := part.Open()
	if err != nil {
		return "", goerr.Wrap(err, "open document part")
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "parse document part")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			depth := len(stack)
			switch {
			case t.Name.Local == "p" && depth >= 2 && stack[depth-2] == "body":
				inPara = true
				paraDepth = depth
				current.Reset()
			case inPara && t.Name.Local == "tab":
				current.WriteString("\t")
			case inPara && (t.Name.Local == "br" || t.Name.Local == "cr"):
				current.WriteString("\n")
			}

		case xml.CharData:
			if inPara && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(t)
			}

		case xml.EndElement:
			if inPara && t.Name.Local == "p" && len(stack) == paraDepth {
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return paragraphs, nil
}
