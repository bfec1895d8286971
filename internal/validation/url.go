package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks links taken from catalog items before they are handed
// to an external opener.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewURLValidator blocks loopback and private hosts.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: 2048}
}

// NewPermissiveURLValidator is used when the backend itself runs locally and
// serves links to its own host.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize returns input as a canonical http(s) URL. A missing
// scheme defaults to https.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.validateHost(u.Host); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	q := strings.ToLower(u.RawQuery)
	if strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}

	return u.String(), nil
}

func (v *URLValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	if isSuspiciousHostname(hostname) {
		return fmt.Errorf("suspicious hostname detected")
	}
	return nil
}

// ValidateBaseURL checks the configured API root. Unlike item links the
// scheme must be spelled out, and local hosts are fine since development
// backends usually run on them.
func ValidateBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if strings.ContainsAny(raw, "<>\"'` ") {
		return fmt.Errorf("URL contains invalid characters")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Hostname() == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("URL must not carry a query or fragment")
	}
	return nil
}

// IsLocalBackend reports whether the API root points at this machine or a
// private network, where the backend may hand out links to its own host.
func IsLocalBackend(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := u.Hostname()
	if isLocalhost(host) {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return isPrivateIP(ip)
	}
	return false
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

var privateBlocks = func() []*net.IPNet {
	var blocks []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"127.0.0.0/8",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil {
			blocks = append(blocks, block)
		}
	}
	return blocks
}()

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// isSuspiciousHostname flags unroutable addresses and hex-obfuscated hosts.
func isSuspiciousHostname(hostname string) bool {
	switch strings.ToLower(hostname) {
	case "0.0.0.0", "255.255.255.255", "localhost.com":
		return true
	}

	if len(hostname) > 8 && strings.Count(hostname, ".") == 3 {
		if net.ParseIP(hostname) != nil {
			return false
		}
		for _, part := range strings.Split(hostname, ".") {
			if !isHexString(strings.TrimPrefix(strings.ToLower(part), "0x")) {
				return false
			}
		}
		return true
	}
	return false
}

func isHexString(s string) bool {
	for _, char := range s {
		if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F')) {
			return false
		}
	}
	return true
}
