// Package ident derives stable identifiers for doc entries.
package ident

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phobologic/nodedocs/internal/model"
)

const (
	instanceSep = "#"
	staticSep   = "."
	eventPrefix = "event:"
)

// Namespace returns the module name derived from a source path: the extension
// is stripped, the first path segment dropped and the rest joined with ".".
// "lib/services/videos.js" becomes "services.videos".
func Namespace(file string) string {
	p := filepath.ToSlash(file)
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimPrefix(p, "./")
	segments := strings.Split(p, "/")
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[1:], ".")
}

// Separator returns "#" for instance members and "." otherwise.
func Separator(instance bool) string {
	if instance {
		return instanceSep
	}
	return staticSep
}

// Generate builds the id of e:
//
//	[memberof sep][namespace "."][event:]name
//
// where sep is "#" for instance members and "." otherwise and namespace is
// derived from the entry's source file. Entries without a name are addressed
// by their line.
func Generate(e model.DocEntry) string {
	var b strings.Builder

	if e.MemberOf != "" {
		b.WriteString(e.MemberOf)
		b.WriteString(Separator(e.Instance))
	}
	if ns := Namespace(e.Source.File); ns != "" {
		b.WriteString(ns)
		b.WriteString(staticSep)
	}
	if e.Kind == model.Event {
		b.WriteString(eventPrefix)
	}

	name := e.Name
	if name == "" {
		name = "anonymous@" + strconv.Itoa(e.Source.Line)
	}
	b.WriteString(name)

	return b.String()
}
