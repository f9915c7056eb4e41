// Package shape infers a declaration's shape from the first line of code
// following a documentation comment.
package shape

import (
	"regexp"
	"strings"

	"github.com/phobologic/nodedocs/internal/ident"
	"github.com/phobologic/nodedocs/internal/model"
)

const (
	ws      = `\s*`
	name    = `([\w$]+)`
	key     = `([\w$]+|'[^'\n]*'|"[^"\n]*")`
	value   = `([^=\n;][^\n;]*)`
	fnValue = `(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[\w$]+\s*=>)`
	decl    = `(?:export\s+)?(?:var|let|const)\s+`
	mods    = `(?:(?:public|private|protected|static|readonly|abstract|override|async|get|set)\s+)*`
	owner   = `([\w$]+(?:\.[\w$]+)*)`
)

// methodTail closes a method header. Only a TypeScript return annotation may
// sit between the parameter list and the body.
const methodTail = `\)\s*(?::[^={;()]+)?\{`

// rule is one candidate shape. Rules are tried in order; the first whose
// pattern matches (and is not rejected by skip) wins.
type rule struct {
	kind     model.Kind
	re       *regexp.Regexp
	name     int // submatch index of the declared name
	owner    int // submatch index of the owner, 0 if none
	instance bool
	skip     func(m []string) bool
}

var rules = []rule{
	// function add(a, b) {
	{kind: model.Function, re: regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?` + ws + name + ws + `\(`), name: 1},
	// var add = function (a, b) {   const add = (a, b) => {
	{kind: model.Function, re: regexp.MustCompile(`^` + decl + name + ws + `=` + ws + fnValue), name: 1},
	// class Circle extends Shape {
	{kind: model.Function, re: regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+` + name), name: 1},
	// Circle.prototype.area = function () {
	{kind: model.Function, re: regexp.MustCompile(`^` + owner + `\.prototype\.` + name + ws + `=` + ws + fnValue), name: 2, owner: 1, instance: true},
	// Circle.prototype.radius = 1;
	{kind: model.Member, re: regexp.MustCompile(`^` + owner + `\.prototype\.` + name + ws + `=` + ws + value), name: 2, owner: 1, instance: true},
	// this.area = function () {
	{kind: model.Function, re: regexp.MustCompile(`^this\.` + name + ws + `=` + ws + fnValue), name: 1, instance: true},
	// this.radius = r;
	{kind: model.Member, re: regexp.MustCompile(`^this\.` + name + ws + `=` + ws + value), name: 1, instance: true},
	// exports.add = function () {   a.b.c = function () {
	{kind: model.Function, re: regexp.MustCompile(`^` + owner + `\.` + name + ws + `=` + ws + fnValue), name: 2, owner: 1},
	// Circle.DEFAULT_RADIUS = 1;
	{kind: model.Member, re: regexp.MustCompile(`^` + owner + `\.` + name + ws + `=` + ws + value), name: 2, owner: 1},
	// var PI = 3.14;
	{kind: model.Member, re: regexp.MustCompile(`^` + decl + name + ws + `=` + ws + value), name: 1},
	// var counter;
	{kind: model.Member, re: regexp.MustCompile(`^` + decl + name + ws + `(?:[;,]|$)`), name: 1},
	// area: function () {
	{kind: model.Function, re: regexp.MustCompile(`^` + key + ws + `:` + ws + fnValue), name: 1},
	// area(a, b) {   static async create(opts) {
	{kind: model.Function, re: regexp.MustCompile(`^` + mods + `\*?` + ws + name + ws + `\(([^()]*)` + methodTail), name: 1, skip: isCall},
	// radius: 1,
	{kind: model.Member, re: regexp.MustCompile(`^` + mods + key + `\??` + ws + `:` + ws + value), name: 1},
	// area = function () {
	{kind: model.Function, re: regexp.MustCompile(`^` + mods + name + ws + `=` + ws + fnValue), name: 1},
	// radius = 1;   static count = 0;
	{kind: model.Member, re: regexp.MustCompile(`^` + mods + name + ws + `=` + ws + value), name: 1},
}

var keywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "function": {},
	"return": {}, "with": {}, "do": {}, "else": {}, "typeof": {}, "new": {},
}

func isKeyword(m []string) bool {
	_, ok := keywords[m[1]]
	return ok
}

// isCall rejects method-looking lines that are calls taking a callback, such
// as define([...], function ($) {.
func isCall(m []string) bool {
	return isKeyword(m) || strings.Contains(m[2], "function") || strings.Contains(m[2], "=>")
}

// exportTokens are owners that stand for the current module.
var exportTokens = map[string]struct{}{
	"exports":        {},
	"module.exports": {},
}

// Infer returns the declaration shape described by line, the first line of
// code after a documentation comment. file is the source path and is used to
// attribute module exports to the file's module name. Unrecognised lines
// yield an empty shape.
func Infer(line, file string) model.CodeShape {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.CodeShape{}
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil || (r.skip != nil && r.skip(m)) {
			continue
		}
		s := model.CodeShape{
			Name:     unquote(m[r.name]),
			Kind:     r.kind,
			Instance: r.instance,
		}
		if r.owner > 0 {
			s.Owner = m[r.owner]
		}
		if _, ok := exportTokens[s.Owner]; ok {
			s.Owner = ident.Namespace(file)
		}
		return s
	}

	return model.CodeShape{}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
