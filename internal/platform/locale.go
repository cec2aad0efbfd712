package platform

import (
	"strings"

	"golang.org/x/text/language"
)

// CanonicalLocale converts a raw locale such as "de_DE.UTF-8", "pt-br" or
// "fr" into "ll_RR" form. Empty, C and POSIX locales map to DefaultLocale.
func CanonicalLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || raw == "C" || raw == "POSIX" {
		return DefaultLocale
	}

	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return DefaultLocale
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	if base.String() == "und" {
		return DefaultLocale
	}
	if region.String() == "ZZ" {
		return base.String()
	}
	return base.String() + "_" + region.String()
}

// envLocale reads the POSIX locale variables in precedence order.
func envLocale(getenv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}
