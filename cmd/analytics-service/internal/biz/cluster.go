package biz

import "strings"

// UnknownSource 空来源的聚类名
const UnknownSource = "unknown"

// ClusterSource collapses a retrieval source identifier to its parent
// location so that label cardinality stays bounded.
//
//	https://example.com/docs/page1  -> https://example.com/docs
//	https://example.com             -> https://example.com
//	docs/folder/file.txt            -> docs/folder
//	file.txt                        -> file.txt
func ClusterSource(source string) string {
	if source == "" {
		return UnknownSource
	}

	source = strings.TrimSuffix(source, "/")

	if scheme, rest, ok := strings.Cut(source, "://"); ok {
		if strings.Count(rest, "/") > 1 {
			rest = rest[:strings.LastIndex(rest, "/")]
		}
		return scheme + "://" + rest
	}

	if strings.Count(source, "/") > 1 {
		return source[:strings.LastIndex(source, "/")]
	}
	return source
}
