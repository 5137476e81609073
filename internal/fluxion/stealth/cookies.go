package stealth

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
)

// CookieJar is an insertion-ordered name->value mapping. Last write wins on
// duplicate names; insertion order only affects Header() output order.
type CookieJar struct {
	order  []string
	values map[string]string
}

// NewCookieJar returns an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{values: make(map[string]string)}
}

// Add inserts or overwrites name=value.
func (j *CookieJar) Add(name, value string) {
	if _, exists := j.values[name]; !exists {
		j.order = append(j.order, name)
	}
	j.values[name] = value
}

// AddRaw parses "name=value; name2=value2" pairs, as sent by a browser's
// document.cookie or a --cookie flag value.
func (j *CookieJar) AddRaw(raw string) {
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		j.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
}

// LoadFile auto-detects Netscape cookie-jar format (7 tab-separated fields
// per line, '#' comments) vs a JSON array of {"name","value"} objects by
// inspecting the first non-whitespace character.
func LoadFile(path string) (*CookieJar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fluxerr.Newf(fluxerr.Stealth, "cannot read cookie file %s", path).WithCause(err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return NewCookieJar(), nil
	}

	if trimmed[0] == '[' || trimmed[0] == '{' {
		return loadJSONCookies(data)
	}
	return loadNetscapeCookies(data)
}

func loadJSONCookies(data []byte) (*CookieJar, error) {
	var entries []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fluxerr.New(fluxerr.Stealth, "malformed JSON cookie file").WithCause(err)
	}
	jar := NewCookieJar()
	for _, e := range entries {
		jar.Add(e.Name, e.Value)
	}
	return jar, nil
}

func loadNetscapeCookies(data []byte) (*CookieJar, error) {
	jar := NewCookieJar()
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		jar.Add(fields[5], fields[6])
	}
	if err := scanner.Err(); err != nil {
		return nil, fluxerr.New(fluxerr.Stealth, "failed scanning Netscape cookie file").WithCause(err)
	}
	return jar, nil
}

// AsHeader joins name=value pairs with "; " in insertion order.
func (j *CookieJar) AsHeader() string {
	pairs := make([]string, 0, len(j.order))
	for _, name := range j.order {
		pairs = append(pairs, name+"="+j.values[name])
	}
	return strings.Join(pairs, "; ")
}

// AsMap returns a copy of the jar's contents.
func (j *CookieJar) AsMap() map[string]string {
	out := make(map[string]string, len(j.values))
	for k, v := range j.values {
		out[k] = v
	}
	return out
}

// Len returns the number of distinct cookie names held.
func (j *CookieJar) Len() int { return len(j.order) }
