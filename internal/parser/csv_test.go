package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser_Rows(t *testing.T) {
	input := "name,phone\nAda,123\nBob,456,extra\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "contacts.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "contacts" {
		t.Errorf("expected title %q, got %q", "contacts", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(tree.Children))
	}
	batch := tree.Children[0]
	if batch.Title != "Rows 2-3" {
		t.Errorf("expected %q, got %q", "Rows 2-3", batch.Title)
	}
	if len(batch.Children) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(batch.Children))
	}
	ada := batch.Children[0]
	if ada.Title != "Ada" || ada.Text != "name: Ada\nphone: 123" || ada.Page != 2 {
		t.Errorf("unexpected row %+v", ada)
	}
	if bob := batch.Children[1]; bob.Text != "name: Bob\nphone: 456\nextra" {
		t.Errorf("unexpected row text %q", bob.Text)
	}
}

func TestCSVParser_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("id\n")
	for i := range 45 {
		fmt.Fprintf(&b, "%d\n", i)
	}
	tree, err := (&CSVParser{}).Parse(strings.NewReader(b.String()), "ids.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Rows 2-21", "Rows 22-41", "Rows 42-46"}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Title != w {
			t.Errorf("batch %d: expected %q, got %q", i, w, tree.Children[i].Title)
		}
	}
	if len(tree.Children[2].Children) != 5 {
		t.Errorf("expected 5 rows in last batch, got %d", len(tree.Children[2].Children))
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	tree, err := (&CSVParser{}).Parse(strings.NewReader("a,b\n"), "h.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}
