// Package tenant derives sanitized tenant identifiers and their storage roots.
//
// Every collection in notesd is scoped by a tenant identifier taken from the
// request. Identifiers are restricted to [A-Za-z0-9._-] so they can be used
// directly as directory names; anything that sanitizes to nothing falls back
// to DefaultTenant rather than failing the request.
package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTenant is used when no usable identifier is supplied.
const DefaultTenant = "default"

// Sanitize strips a raw identifier down to [A-Za-z0-9._-].
//
// Rules applied:
//   - Drops every character outside the allowed set
//   - Returns DefaultTenant if the input or the result is empty
//
// Examples:
//
//	"alice"        -> "alice"
//	"../etc/cron"  -> "..etccron"  -> usable, cannot escape the data root
//	"" or "!!!"    -> "default"
func Sanitize(raw string) string {
	if raw == "" {
		return DefaultTenant
	}

	var result strings.Builder
	result.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			result.WriteRune(r)
		}
	}

	s := result.String()
	// A component of only dots ("." or "..") would resolve outside the
	// tenant's own directory; treat it like an empty identifier.
	if s == "" || strings.Trim(s, ".") == "" {
		return DefaultTenant
	}
	return s
}

// Dir returns the tenant's storage directory under root, creating it if
// needed. The tenant must already be sanitized; Dir rejects anything that
// would resolve outside root.
func Dir(root, tenant string) (string, error) {
	if tenant == "" {
		tenant = DefaultTenant
	}
	dir := filepath.Join(root, tenant)

	// Sanitize keeps "." and "..", so a path component of only dots could
	// still climb out of root. Reject instead of guessing.
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("tenant %q resolves outside data root", tenant)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create tenant directory %s: %w", dir, err)
	}
	return dir, nil
}
