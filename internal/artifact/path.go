package artifact

import "strings"

// PathVariants returns the keys tried against an upload set for a logical
// path, in lookup order:
//
//  1. path with the remote base prefix removed
//  2. the same, with every separator normalized to "/"
//  3. bare filename
//  4. path as given
//  5. the "/"-normalized form rewritten with "\" separators
//
// Empty and duplicate spellings are dropped. base may be empty.
func PathVariants(path, base string) []string {
	slashed := toSlash(path)
	normalized := stripBase(slashed, toSlash(base))

	candidates := []string{
		stripBase(path, base),
		normalized,
		baseName(slashed),
		path,
		toBackslash(normalized),
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// uploadKeys returns the spellings an uploaded file is registered under,
// ordered from most to least specific. rel is the relative path reported
// for the file, which usually starts with the selected folder's name.
func uploadKeys(rel string) []string {
	slashed := strings.TrimPrefix(toSlash(rel), "./")
	keys := make([]string, 0, 5)
	if i := strings.IndexByte(slashed, '/'); i >= 0 && i < len(slashed)-1 {
		keys = append(keys, slashed[i+1:])
	}
	keys = append(keys, slashed, toBackslash(slashed), rel)
	if name := baseName(slashed); name != "" {
		keys = append(keys, name)
	}
	return keys
}

func stripBase(path, base string) string {
	if base == "" {
		return path
	}
	for _, sep := range []string{"/", `\`} {
		if rest, ok := strings.CutPrefix(path, base+sep); ok {
			return rest
		}
	}
	return path
}

func toSlash(p string) string     { return strings.ReplaceAll(p, `\`, "/") }
func toBackslash(p string) string { return strings.ReplaceAll(p, "/", `\`) }

func baseName(slashed string) string {
	if i := strings.LastIndexByte(slashed, '/'); i >= 0 {
		return slashed[i+1:]
	}
	return slashed
}
