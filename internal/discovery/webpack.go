package discovery

import (
	"regexp"
	"strings"
)

var (
	// "static/js/"+e+"."+{0:"a1b2",1:"c3d4"}[e]+".chunk.js"
	webpackHashMapRegex = regexp.MustCompile(`(?:"([^"]*)"\s*\+\s*)?((?:\w+|\([^()]*\))\s*\+\s*"\."\s*\+\s*)?\{([^{}]+)\}\[\w+\]\s*\+\s*"([^"]*\.js)"`)
	webpackMapEntryRegex = regexp.MustCompile(`(?:"([\w-]+)"|(\w+))\s*:\s*"([\w-]+)"`)
	// {12:"vendors.js","admin":"admin.bundle.js"}
	webpackFileMapRegex = regexp.MustCompile(`[{,]\s*(?:\d+|"[\w-]+")\s*:\s*"([\w./-]+\.js)"`)
	publicPathRegex     = regexp.MustCompile(`(?:__webpack_require__|\b[a-zA-Z_]\w?)\.p\s*=\s*"([^"]+)"`)
)

// webpackChunkNames expands chunk manifests into chunk file names.
func webpackChunkNames(text string) []string {
	var names []string
	for _, m := range webpackHashMapRegex.FindAllStringSubmatch(text, -1) {
		prefix, withID, body, suffix := m[1], m[2] != "", m[3], m[4]
		for _, entry := range webpackMapEntryRegex.FindAllStringSubmatch(body, -1) {
			id := entry[1]
			if id == "" {
				id = entry[2]
			}
			hash := entry[3]
			if withID {
				names = append(names, prefix+id+"."+hash+suffix)
			} else {
				names = append(names, prefix+hash+suffix)
			}
		}
	}
	for _, m := range webpackFileMapRegex.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return names
}

// findPublicPath returns the webpack public path assignment, if any.
func findPublicPath(text string) string {
	for _, m := range publicPathRegex.FindAllStringSubmatch(text, -1) {
		candidate := m[1]
		if strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "http://") ||
			strings.HasPrefix(candidate, "https://") || strings.HasPrefix(candidate, "./") {
			return candidate
		}
	}
	return ""
}
