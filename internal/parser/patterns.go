package parser

import "regexp"

// Compound patterns capture identifier and secret in one match. They are
// tried in order; the first pattern with a match wins for the whole string,
// and each non-overlapping match of that pattern yields its own candidate.
// Ordering goes from the most explicit label vocabulary to the loosest.
var compoundPatterns = []*regexp.Regexp{
	// Router sticker style: "Network Name (SSID): X ... Network Key (Password): Y".
	regexp.MustCompile(`(?i)network\s+name\s*\(ssid\)\s*:?\s*(\S+)[\s\S]*?network\s+key\s*\((?:password|passphrase)\)\s*:?\s*(\S+)`),
	// Plain labels: "SSID: X ... Password: Y" and common synonyms.
	regexp.MustCompile(`(?i)\bssid\s*[:=]?\s*(\S+)[\s\S]*?\b(?:password|passphrase|passwd|psk|wpa2?\s*key|key)\s*[:=]?\s*(\S+)`),
	// Wi-Fi prefixed: "WiFi Name: X ... WiFi Password: Y".
	regexp.MustCompile(`(?i)\bwi[-‑]?fi(?:\s+name)?\s*[:=]\s*(\S+)[\s\S]*?\b(?:wi[-‑]?fi\s+)?(?:password|key)\s*[:=]\s*(\S+)`),
	// German sticker vocabulary.
	regexp.MustCompile(`(?i)\bnetzwerkname\s*[:=]?\s*(\S+)[\s\S]*?\b(?:schl[üu]ssel|kennwort|passwort)\s*[:=]?\s*(\S+)`),
	// French sticker vocabulary.
	regexp.MustCompile(`(?i)\bnom\s+du\s+r[ée]seau\s*[:=]?\s*(\S+)[\s\S]*?\b(?:cl[ée]\s+de\s+s[ée]curit[ée]|mot\s+de\s+passe)\s*[:=]?\s*(\S+)`),
}

// Identifier-only patterns used when no compound pattern matches.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bssid\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\bnetwork\s+name\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\bwi[-‑]?fi\s+name\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\bnetzwerkname\s*[:=]?\s*(\S+)`),
}

// Secret-only patterns used when no compound pattern matches.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:password|passphrase|passwd)\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\b(?:psk|wpa2?\s*key|network\s+key)\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\b(?:passwort|kennwort|schl[üu]ssel)\s*[:=]?\s*(\S+)`),
	regexp.MustCompile(`(?i)\bmot\s+de\s+passe\s*[:=]?\s*(\S+)`),
}
