package node

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Capability is what a socket type tag allows.
type Capability struct {
	// LiteralCapable sockets hold a value instead of connections.
	LiteralCapable bool
	// LiteralType is the value type a literal must convert to. It is
	// cty.NilType when LiteralCapable is false.
	LiteralType cty.Type
}

// literalTags maps the tags of primitive filter fields to their value type.
// Everything else (PixelSource, Cell, scalar, meta, synthetic...) is wired.
var literalTags = map[string]cty.Type{
	"literal": cty.String,
	"string":  cty.String,
	"String":  cty.String,
	"char":    cty.String,
	"boolean": cty.Bool,
	"bool":    cty.Bool,
	"byte":    cty.Number,
	"short":   cty.Number,
	"int":     cty.Number,
	"long":    cty.Number,
	"float":   cty.Number,
	"double":  cty.Number,
	"number":  cty.Number,
}

// CapabilityOf inspects a comma-separated type tag list. The first literal
// tag found decides the literal type.
func CapabilityOf(typeTag string) Capability {
	for _, tag := range strings.Split(typeTag, ",") {
		if t, ok := literalTags[strings.TrimSpace(tag)]; ok {
			return Capability{LiteralCapable: true, LiteralType: t}
		}
	}
	return Capability{LiteralType: cty.NilType}
}

// Tags splits a type tag list into its trimmed, non-empty parts.
func Tags(typeTag string) []string {
	var tags []string
	for _, tag := range strings.Split(typeTag, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
