package engine

import (
	"encoding/base64"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Validator reports whether a value is structurally valid for its category.
type Validator func(value string) bool

var (
	validatorsMu sync.RWMutex
	validators   = map[string]Validator{
		"email":        ValidEmail,
		"phone":        ValidPhone,
		"ipv4":         ValidIPv4,
		"national_id":  ValidNationalID,
		"path":         ValidPath,
		"url":          ValidURL,
		"jwt":          ValidJWT,
		"database_url": ValidDatabaseURL,
	}
)

// RegisterValidator makes a validator available to categories by name.
// Registering an existing name replaces it.
func RegisterValidator(name string, fn Validator) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = fn
}

// LookupValidator returns the validator registered under name.
func LookupValidator(name string) (Validator, bool) {
	validatorsMu.RLock()
	defer validatorsMu.RUnlock()
	fn, ok := validators[name]
	return fn, ok
}

var (
	emailLocalRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+$`)
	emailDomainRegex   = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	mobileRegex        = regexp.MustCompile(`^(?:86-?)?1[3-9]\d{9}$`)
	landlineRegex      = regexp.MustCompile(`^0\d{2,3}-?\d{7,8}$`)
	dbHostRegex        = regexp.MustCompile(`^[a-zA-Z0-9._-]+(?::\d+)?(?:/[a-zA-Z0-9._-]*)?$`)
	assetTLDs          = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true, "svg": true, "webp": true, "js": true, "css": true, "ico": true}
	nationalIDWeights  = []int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
	nationalIDChecksum = "10X98765432"
)

// ValidEmail requires one @, a plausible local part and a dotted domain whose
// last label is not a file extension (retina image names look like emails).
func ValidEmail(value string) bool {
	local, domain, ok := strings.Cut(value, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if local == "" || !emailLocalRegex.MatchString(local) || !emailDomainRegex.MatchString(domain) {
		return false
	}
	if strings.Contains(domain, "..") || strings.HasPrefix(domain, ".") || strings.HasPrefix(domain, "-") {
		return false
	}
	tld := strings.ToLower(domain[strings.LastIndexByte(domain, '.')+1:])
	return !assetTLDs[tld]
}

// ValidPhone accepts mainland mobile numbers (optionally 86-prefixed) and
// landlines with an area code.
func ValidPhone(value string) bool {
	return mobileRegex.MatchString(value) || landlineRegex.MatchString(value)
}

// ValidIPv4 accepts a dotted quad with an optional port.
func ValidIPv4(value string) bool {
	host := value
	if h, port, ok := strings.Cut(value, ":"); ok {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
		host = h
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Is4()
}

// ValidNationalID checks the 18-character resident id checksum (ISO 7064 MOD 11-2).
func ValidNationalID(value string) bool {
	if len(value) != 18 {
		return false
	}
	sum := 0
	for i, w := range nationalIDWeights {
		c := value[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * w
	}
	last := value[17]
	if last == 'x' {
		last = 'X'
	}
	return nationalIDChecksum[sum%11] == last
}

// ValidPath requires at least one slash.
func ValidPath(value string) bool {
	return strings.Contains(value, "/")
}

// ValidURL requires a dot, and a host when a scheme is present.
func ValidURL(value string) bool {
	if !strings.Contains(value, ".") {
		return false
	}
	if !strings.Contains(value, "://") {
		return true
	}
	u, err := url.Parse(value)
	return err == nil && u.Host != "" && strings.Contains(u.Hostname(), ".")
}

// ValidJWT requires three long dot-separated parts with a JSON header.
func ValidJWT(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if len(p) <= 10 {
			return false
		}
	}
	header, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[0], "="))
	return err == nil && strings.HasPrefix(strings.TrimSpace(string(header)), "{")
}

// ValidDatabaseURL accepts connection URLs with a scheme and host, JDBC
// strings, and bare host[:port][/name] values.
func ValidDatabaseURL(value string) bool {
	if strings.HasPrefix(strings.ToLower(value), "jdbc:") {
		return len(value) > len("jdbc:")+3
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		return err == nil && u.Scheme != "" && u.Host != ""
	}
	return dbHostRegex.MatchString(value)
}
