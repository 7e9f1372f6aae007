// Package xmldoc reads and writes the legacy XML document variant: nested
// Item/Name/Desc elements with the session configuration embedded in the
// same file.
package xmldoc

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/settings"
)

const (
	// FormatVersion is written into the Configuration block.
	FormatVersion = "0.16"

	// RootElement names the document element on write.
	RootElement = "Outline"
)

type document struct {
	XMLName       xml.Name
	Configuration configuration `xml:"Configuration"`
	Tree          *itemList     `xml:"Tree"`
}

type configuration struct {
	Version        string `xml:"Version"`
	WindowPosition string `xml:"WindowPosition"`
	WindowSize     string `xml:"WindowSize"`
	PanedPosition  string `xml:"PanedPosition"`
	LastPath       string `xml:"LastPath"`
}

type itemList struct {
	Items []item `xml:"Item"`
}

type item struct {
	Name string    `xml:"Name"`
	Desc string    `xml:"Desc"`
	Tree *itemList `xml:"Tree"`
}

// Decode reads an XML document. Configuration values that are missing or
// malformed keep the values in base. The root element name is not checked.
func Decode(r io.Reader, base settings.Settings) (*doctree.Tree, settings.Settings, error) {
	var doc document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, base, fmt.Errorf("decode xml document: %w", err)
	}

	st := base
	c := doc.Configuration
	if p, ok := parsePair(c.WindowPosition); ok {
		st.WindowPosition = p
	}
	if p, ok := parsePair(c.WindowSize); ok {
		st.WindowSize = p
	}
	if n, err := strconv.Atoi(strings.TrimSpace(c.PanedPosition)); err == nil {
		st.PanedPosition = n
	}
	if lp := strings.TrimSpace(c.LastPath); lp != "" {
		st.LastPath = lp
	}

	t := doctree.New()
	var load func(parent doctree.NodeID, list *itemList)
	load = func(parent doctree.NodeID, list *itemList) {
		if list == nil {
			return
		}
		for _, it := range list.Items {
			id, _ := t.Add(parent, it.Name, it.Desc)
			load(id, it.Tree)
		}
	}
	load(doctree.Root, doc.Tree)
	return t, st, nil
}

// Encode writes t and the configuration part of st as an XML document.
func Encode(w io.Writer, t *doctree.Tree, st settings.Settings) error {
	doc := document{
		XMLName: xml.Name{Local: RootElement},
		Configuration: configuration{
			Version:        FormatVersion,
			WindowPosition: formatPair(st.WindowPosition),
			WindowSize:     formatPair(st.WindowSize),
			PanedPosition:  strconv.Itoa(st.PanedPosition),
			LastPath:       st.LastPath,
		},
		Tree: encodeList(t, t.Roots()),
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode xml document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeList(t *doctree.Tree, ids []doctree.NodeID) *itemList {
	if len(ids) == 0 {
		return nil
	}
	list := &itemList{}
	for _, id := range ids {
		n, _ := t.Get(id)
		list.Items = append(list.Items, item{
			Name: n.Title,
			Desc: n.Body,
			Tree: encodeList(t, t.Children(id)),
		})
	}
	return list
}

func parsePair(s string) ([2]int, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, false
	}
	a, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return [2]int{}, false
	}
	return [2]int{a, b}, true
}

func formatPair(p [2]int) string {
	return strconv.Itoa(p[0]) + "," + strconv.Itoa(p[1])
}
