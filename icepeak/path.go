package icepeak

import (
	"strings"
	"time"
)

// SplitPath parses a slash-delimited path such as "a/b/c" (as it
// appears in an HTTP request path or a WebSocket subscription URL)
// into a Path. Leading/trailing slashes and empty segments are
// ignored, so "/", "", and "a//b" all behave sensibly.
func SplitPath(s string) Path {
	path := Path{}
	for _, segment := range strings.Split(s, "/") {
		if segment != "" {
			path = append(path, segment)
		}
	}
	return path
}

func nowUnix() int64 {
	return time.Now().Unix()
}
