package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/spf13/cobra"
)

func newInputCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&text, "text", "t", "", "")
	return cmd
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(md, []byte("# Title\n\nSome *text*.\n\n```\ncode()\n```\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("# not a heading"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		file  string
		flags []string
		args  []string
		want  string
	}{
		{"markdown file", md, nil, nil, "Title\n\nSome text."},
		{"plain file", plain, nil, nil, "# not a heading"},
		{"text flag", "", []string{"--text", "Hello"}, nil, "Hello"},
		{"empty text flag", "", []string{"--text", ""}, nil, ""},
		{"args", "", nil, []string{"Hello", "world"}, "Hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputFile = tt.file
			t.Cleanup(func() { inputFile, text = "", "" })

			cmd := newInputCmd()
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatal(err)
			}

			got, ok, err := readInput(cmd, tt.args, strings.NewReader(""))
			if err != nil {
				t.Fatalf("readInput() error = %v", err)
			}
			if !ok {
				t.Fatal("readInput() reported no input")
			}
			if got != tt.want {
				t.Errorf("readInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInput_Stdin(t *testing.T) {
	inputFile = "-"
	t.Cleanup(func() { inputFile = "" })

	got, ok, err := readInput(newInputCmd(), nil, strings.NewReader("from a pipe"))
	if err != nil || !ok || got != "from a pipe" {
		t.Errorf("readInput() = %q, %v, %v", got, ok, err)
	}
}

func TestReadInput_MissingFile(t *testing.T) {
	inputFile = filepath.Join(t.TempDir(), "missing.txt")
	t.Cleanup(func() { inputFile = "" })

	if _, _, err := readInput(newInputCmd(), nil, strings.NewReader("")); err == nil {
		t.Error("expected error for a missing file")
	}
}

type fakeVoices []tts.Voice

func (f fakeVoices) Voices(context.Context, string, string) ([]tts.Voice, error) {
	return f, nil
}

func TestPrintVoices(t *testing.T) {
	var buf bytes.Buffer
	voices := fakeVoices{
		{ID: "en-us", Name: "English (America)", Language: "en-US"},
		{ID: "espeak-female", Name: "Female", Gender: "Female"},
	}
	if err := printVoices(context.Background(), &buf, voices, "", ""); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Available voices (2)", "en-us", "English (America)", "female"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
