package stealth

import (
	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// Context is the fully-resolved set of inputs to header assembly:
// an optional browser profile, a cookie jar, caller-supplied custom
// headers, and an optional referer.
type Context struct {
	Profile        *model.BrowserProfile
	Cookies        *CookieJar
	CustomHeaders  []model.Header
	Referer        string
}

// BuildHeaders assembles the final header map in precedence order (later
// overwrites earlier): profile base headers -> profile sec-fetch headers
// -> profile User-Agent -> Referer -> custom headers -> Cookie.
func (c Context) BuildHeaders() map[string]string {
	headers := make(map[string]string)

	if c.Profile != nil {
		for _, h := range c.Profile.Headers {
			headers[h.Name] = h.Value
		}
		for _, h := range c.Profile.SecHeaders {
			headers[h.Name] = h.Value
		}
		headers["User-Agent"] = c.Profile.UserAgent
	}

	if c.Referer != "" {
		headers["Referer"] = c.Referer
	}

	for _, h := range c.CustomHeaders {
		headers[h.Name] = h.Value
	}

	if c.Cookies != nil && c.Cookies.Len() > 0 {
		headers["Cookie"] = c.Cookies.AsHeader()
	}

	return headers
}

// ResolveProfile looks up profileName, returning a fluxerr.Stealth error
// for an unrecognized name. An empty name resolves to no profile.
func ResolveProfile(profileName string) (*model.BrowserProfile, error) {
	if profileName == "" {
		return nil, nil
	}
	p, ok := GetProfile(profileName)
	if !ok {
		return nil, fluxerr.Newf(fluxerr.Stealth, "unknown browser profile %q", profileName).
			WithSuggestion("choose one of chrome, firefox, edge, safari")
	}
	return &p, nil
}

// BuildFromRequest resolves a stealth Context from a FetchRequest's stealth
// fields, as the Engine does at the start of fetch/stream.
func BuildFromRequest(req model.FetchRequest) (Context, error) {
	profile, err := ResolveProfile(req.BrowserProfile)
	if err != nil {
		return Context{}, err
	}

	jar := NewCookieJar()
	for _, c := range req.Cookies {
		jar.Add(c.Name, c.Value)
	}

	return Context{
		Profile:       profile,
		Cookies:       jar,
		CustomHeaders: req.Headers,
		Referer:       req.Referer,
	}, nil
}
