package tui

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Command is a composer line starting with '/'.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits "/name args". ok is false for plain text.
func ParseCommand(input string) (cmd Command, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Command{}, false
	}
	name, args, _ := strings.Cut(input[1:], " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}, true
}

// dataURL reads an image file into the data URL form the server accepts.
func dataURL(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("a file path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	kind := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(kind, "image/") {
		return "", fmt.Errorf("%s is not an image", filepath.Base(path))
	}
	kind, _, _ = strings.Cut(kind, ";")
	return "data:" + kind + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
