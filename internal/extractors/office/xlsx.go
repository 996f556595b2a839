package office

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

type sharedStrings struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type worksheet struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline string `xml:"is>t"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// readXLSX returns one tab-separated block per worksheet.
func readXLSX(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var strs []string
	var sheetFiles []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == "xl/sharedStrings.xml":
			var ss sharedStrings
			if err := decodeXML(f, &ss); err != nil {
				return nil, fmt.Errorf("shared strings: %w", err)
			}
			for _, item := range ss.Items {
				s := item.Text
				for _, r := range item.Runs {
					s += r.Text
				}
				strs = append(strs, s)
			}
		case strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml"):
			sheetFiles = append(sheetFiles, f)
		}
	}
	sort.Slice(sheetFiles, func(i, j int) bool { return sheetNumber(sheetFiles[i].Name) < sheetNumber(sheetFiles[j].Name) })

	sheets := make([]string, 0, len(sheetFiles))
	for _, f := range sheetFiles {
		var ws worksheet
		if err := decodeXML(f, &ws); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		var b strings.Builder
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				cells = append(cells, cellText(c.Type, c.Value, c.Inline, strs))
			}
			if line := strings.TrimRight(strings.Join(cells, "\t"), "\t"); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		sheets = append(sheets, strings.TrimSpace(b.String()))
	}
	return sheets, nil
}

func cellText(typ, value, inline string, strs []string) string {
	switch typ {
	case "s":
		i, err := strconv.Atoi(value)
		if err != nil || i < 0 || i >= len(strs) {
			return ""
		}
		return strs[i]
	case "inlineStr":
		return inline
	}
	return value
}

func sheetNumber(name string) int {
	n := strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/sheet"), ".xml")
	i, _ := strconv.Atoi(n)
	return i
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(io.LimitReader(rc, 64<<20)).Decode(v)
}
