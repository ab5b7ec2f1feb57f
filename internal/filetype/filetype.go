// Package filetype picks the editor language of a file from its name and,
// when the name says nothing, from its content.
package filetype

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// PlainText is the language of files nothing more specific matches
const PlainText = "plaintext"

// Info describes a file's content
type Info struct {
	Language string
	MIME     string
	Charset  string
	Binary   bool
}

var byExtension = map[string]string{
	".c":          "c",
	".cc":         "cpp",
	".cpp":        "cpp",
	".cs":         "csharp",
	".css":        "css",
	".dockerfile": "dockerfile",
	".go":         "go",
	".h":          "c",
	".hpp":        "cpp",
	".html":       "html",
	".htm":        "html",
	".java":       "java",
	".js":         "javascript",
	".jsx":        "javascript",
	".mjs":        "javascript",
	".json":       "json",
	".kt":         "kotlin",
	".less":       "less",
	".lua":        "lua",
	".md":         "markdown",
	".php":        "php",
	".py":         "python",
	".rb":         "ruby",
	".rs":         "rust",
	".scss":       "scss",
	".sh":         "shell",
	".bash":       "shell",
	".sql":        "sql",
	".swift":      "swift",
	".toml":       "ini",
	".ini":        "ini",
	".ts":         "typescript",
	".tsx":        "typescript",
	".txt":        PlainText,
	".xml":        "xml",
	".svg":        "xml",
	".yaml":       "yaml",
	".yml":        "yaml",
}

var byName = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
}

// byMIME maps sniffed types to languages, most specific first
var byMIME = []struct {
	mime     string
	language string
}{
	{"application/json", "json"},
	{"text/html", "html"},
	{"text/xml", "xml"},
	{"image/svg+xml", "xml"},
	{"text/javascript", "javascript"},
	{"text/x-python", "python"},
	{"text/x-php", "php"},
	{"text/x-shellscript", "shell"},
	{"text/x-lua", "lua"},
	{"text/x-perl", "perl"},
	{"text/x-tcl", "tcl"},
	{"text/rtf", PlainText},
}

// Language returns the editor language for a file name, or "" when the
// name is not conclusive.
func Language(name string) string {
	base := strings.ToLower(path.Base(name))
	if lang, ok := byName[base]; ok {
		return lang
	}
	return byExtension[path.Ext(base)]
}

// Detect describes a file by name and content. content may be nil when it
// has not been fetched yet.
func Detect(name string, content []byte) Info {
	info := Info{Language: Language(name), MIME: "text/plain", Charset: "utf-8"}
	if len(content) == 0 {
		if info.Language == "" {
			info.Language = PlainText
		}
		return info
	}

	mtype := mimetype.Detect(content)
	info.MIME = mtype.String()
	info.Binary = !isText(mtype)
	if !info.Binary && !utf8.Valid(content) {
		info.Charset = DetectCharset(content)
	}

	if info.Language == "" {
		info.Language = PlainText
		for _, m := range byMIME {
			if mtype.Is(m.mime) {
				info.Language = m.language
				break
			}
		}
	}
	return info
}

// DetectCharset returns the most likely charset of text, lower-cased
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// isText reports whether the type descends from text/plain
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
