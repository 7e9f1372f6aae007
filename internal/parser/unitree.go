package parser

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/dgallion1/outline/internal/doctree"
)

// unitreeElement is one entry of a Unitree XML export. Instance entries
// ("ins") carry a description and list their children under Kids; every
// other entry lists them under Instances.
type unitreeElement struct {
	Name       string       `xml:"Name"`
	Type       string       `xml:"Type"`
	Attributes []string     `xml:"Attributes>Atr"`
	Kids       *unitreeList `xml:"Kids"`
	Instances  *unitreeList `xml:"Instances"`
}

type unitreeList struct {
	Items []unitreeElement `xml:",any"`
}

// UnitreeParser imports a Unitree XML export.
type UnitreeParser struct{}

func (p *UnitreeParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	var root unitreeElement
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse unitree xml: %w", err)
	}
	return &doctree.DocTree{
		Title:    "Unitree - " + root.Name,
		Children: unitreeNodes(root.Kids),
	}, nil
}

func unitreeNodes(list *unitreeList) []*doctree.DocNode {
	if list == nil {
		return nil
	}
	out := make([]*doctree.DocNode, 0, len(list.Items))
	for _, e := range list.Items {
		n := &doctree.DocNode{Title: e.Name}
		next := e.Instances
		if e.Type == "ins" {
			if len(e.Attributes) > 0 {
				n.Text = e.Attributes[0]
			}
			next = e.Kids
		}
		n.Children = unitreeNodes(next)
		out = append(out, n)
	}
	return out
}
