// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"path"
	"slices"
	"strings"
)

// mirrorWildcard matches every repository in a mirrorOf pattern.
const mirrorWildcard = "*"

type (
	// Mirror redirects requests for the repositories matched by MirrorOf.
	//
	// MirrorOf is a comma separated pattern list: "*" (all), "external:*"
	// (everything but localhost and file repositories), "external:http:*"
	// (external repositories over plain http), a repository id, or "!id"
	// to exclude an id matched by another pattern.
	Mirror struct {
		ID       string `json:"id" mapstructure:"id"`
		Name     string `json:"name,omitempty" mapstructure:"name"`
		URL      string `json:"url" mapstructure:"url"`
		MirrorOf string `json:"mirror_of" mapstructure:"mirror_of"`
		Layout   string `json:"layout,omitempty" mapstructure:"layout"`
	}

	// ProxySetting is a network proxy. NonProxyHosts is a '|' separated list of
	// host patterns ('*' wildcards) that bypass the proxy.
	ProxySetting struct {
		ID            string `json:"id" mapstructure:"id"`
		Active        bool   `json:"active" mapstructure:"active"`
		Protocol      string `json:"protocol" mapstructure:"protocol"`
		Host          string `json:"host" mapstructure:"host"`
		Port          int    `json:"port" mapstructure:"port"`
		Username      string `json:"username,omitempty" mapstructure:"username"`
		Password      string `json:"password,omitempty" mapstructure:"password"`
		NonProxyHosts string `json:"non_proxy_hosts,omitempty" mapstructure:"non_proxy_hosts"`
	}

	// Server holds credentials for the repository with the same id.
	Server struct {
		ID       string `json:"id" mapstructure:"id"`
		Username string `json:"username,omitempty" mapstructure:"username"`
		Password string `json:"password,omitempty" mapstructure:"password"`
	}

	// Settings are the user-level network settings applied to raw repositories.
	Settings struct {
		Mirrors []Mirror
		Proxies []ProxySetting
		Servers []Server
	}
)

// MirrorFor returns the mirror serving r, or nil. A mirror naming r's id
// exactly takes precedence over pattern matches.
func (s Settings) MirrorFor(r *Repository) *Mirror {
	for i := range s.Mirrors {
		if s.Mirrors[i].MirrorOf == string(r.ID) {
			return &s.Mirrors[i]
		}
	}
	for i := range s.Mirrors {
		if matchesMirrorOf(s.Mirrors[i].MirrorOf, r) {
			return &s.Mirrors[i]
		}
	}
	return nil
}

func matchesMirrorOf(pattern string, r *Repository) bool {
	matched := false
	for p := range strings.SplitSeq(pattern, ",") {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case strings.HasPrefix(p, "!"):
			if p[1:] == string(r.ID) {
				return false
			}
		case p == string(r.ID), p == mirrorWildcard:
			matched = true
		case p == "external:*":
			matched = matched || isExternal(r)
		case p == "external:http:*":
			matched = matched || (isExternal(r) && r.Protocol() == "http")
		}
	}
	return matched
}

func isExternal(r *Repository) bool {
	if r.Protocol() == "file" {
		return false
	}
	host := r.Host()
	return host != "localhost" && host != "127.0.0.1"
}

// InjectMirrors replaces, in place, every entry of repos served by a mirror
// with a repository for that mirror. The original repository is recorded in
// the mirror's Mirrored list.
func (s Settings) InjectMirrors(repos []*Repository) {
	for i, r := range repos {
		m := s.MirrorFor(r)
		if m == nil {
			continue
		}
		layout := Layout(m.Layout)
		if layout == "" {
			layout = r.Layout
		}
		repos[i] = &Repository{
			ID:        ID(m.ID),
			Name:      m.Name,
			URL:       m.URL,
			Layout:    layout,
			Releases:  r.Releases,
			Snapshots: r.Snapshots,
			Mirrored:  []*Repository{r},
		}
	}
}

// InjectProxies attaches, in place, the first active proxy for each
// repository's protocol unless the repository host is a non-proxy host.
func (s Settings) InjectProxies(repos []*Repository) {
	for i, r := range repos {
		p := s.proxyFor(r)
		if p == nil {
			continue
		}
		c := r.Clone()
		c.Proxy = &Proxy{Protocol: p.Protocol, Host: p.Host, Port: p.Port, Username: p.Username, Password: p.Password}
		repos[i] = c
	}
}

func (s Settings) proxyFor(r *Repository) *ProxySetting {
	if r.Protocol() == "file" {
		return nil
	}
	for i := range s.Proxies {
		p := &s.Proxies[i]
		if !p.Active || !strings.EqualFold(p.Protocol, r.Protocol()) {
			continue
		}
		if isNonProxyHost(p.NonProxyHosts, r.Host()) {
			return nil
		}
		return p
	}
	return nil
}

func isNonProxyHost(patterns, host string) bool {
	for p := range strings.SplitSeq(patterns, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ok, _ := path.Match(strings.ToLower(p), strings.ToLower(host)); ok {
			return true
		}
	}
	return false
}

// InjectAuthentication attaches, in place, the credentials of the server
// whose id equals the repository id.
func (s Settings) InjectAuthentication(repos []*Repository) {
	for i, r := range repos {
		for _, srv := range s.Servers {
			if srv.ID != string(r.ID) {
				continue
			}
			c := r.Clone()
			c.Authentication = &Authentication{Username: srv.Username, Password: srv.Password}
			repos[i] = c
			break
		}
	}
}

// Apply injects mirrors, then proxies, then authentication into a copy of
// repos and returns it.
func (s Settings) Apply(repos []*Repository) []*Repository {
	out := make([]*Repository, len(repos))
	copy(out, repos)
	s.InjectMirrors(out)
	s.InjectProxies(out)
	s.InjectAuthentication(out)
	return out
}

// AggregateRepositories implements Aggregator. Raw recessive repositories
// receive the settings first. A recessive repository is dropped when its id
// is already present in the dominant list, either directly or as a mirrored
// repository of a dominant mirror; when both sides are mirrors with the same
// id, the dominant mirror takes over the recessive mirrored repositories.
func (s Settings) AggregateRepositories(dominant, recessive []*Repository, recessiveIsRaw bool) []*Repository {
	if recessiveIsRaw {
		recessive = s.Apply(recessive)
	}

	out := slices.Clone(dominant)
	index := make(map[ID]int, len(out))
	covered := make(map[ID]struct{})
	for i, d := range out {
		if _, dup := index[d.ID]; !dup {
			index[d.ID] = i
		}
		for _, m := range d.Mirrored {
			covered[m.ID] = struct{}{}
		}
	}

	for _, r := range recessive {
		if _, ok := covered[r.ID]; ok {
			continue
		}
		i, dup := index[r.ID]
		if !dup {
			index[r.ID] = len(out)
			out = append(out, r)
			continue
		}
		if len(r.Mirrored) > 0 && len(out[i].Mirrored) > 0 {
			merged := out[i].Clone()
			for _, m := range r.Mirrored {
				if !slices.ContainsFunc(merged.Mirrored, func(x *Repository) bool { return x.ID == m.ID }) {
					merged.Mirrored = append(merged.Mirrored, m)
				}
			}
			out[i] = merged
		}
	}
	return out
}
