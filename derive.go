package sessiongate

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// identityNamespace seeds the deterministic user identifier used when
// SessionConfig.ReuseIdentity is enabled.
var identityNamespace = uuid.MustParse("8f1c7a52-3db0-4a8e-9c1e-6d2a5b9e4f10")

// DisplayNameFromEmail derives a display name from the email's local part:
// each "."-delimited segment is capitalized and the segments are joined
// with spaces. "first.last@domain" becomes "First Last".
func DisplayNameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}

	segments := strings.Split(local, ".")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		runes[0] = unicode.ToUpper(runes[0])
		out = append(out, string(runes))
	}

	return strings.Join(out, " ")
}

// InitialsFromName derives avatar initials: the first rune of each
// whitespace-delimited token, uppercased, truncated to two.
func InitialsFromName(name string) string {
	var initials []rune
	for _, token := range strings.Fields(name) {
		initials = append(initials, unicode.ToUpper([]rune(token)[0]))
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

func newUserID(email string, reuseIdentity bool) string {
	if reuseIdentity {
		return uuid.NewSHA1(identityNamespace, []byte(strings.ToLower(email))).String()
	}
	return uuid.NewString()
}
