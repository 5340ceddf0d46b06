// Package vaultauth implements the challenge-based bearer authorizer used
// by services (like a secrets vault) that require a probe request before
// revealing which scope a client must authenticate for. The authorizer
// sends the client's first request without a body or authorization,
// reads the WWW-Authenticate challenge it provokes, and authorizes every
// request after that from the cached scope.
package vaultauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/meridiandb/meridian-go/core"
)

// Request is the minimal outbound-request shape the authorizer needs to
// read and mutate: method/headers are irrelevant to it beyond the body and
// host, so callers adapt their own HTTP type to this one at the policy
// boundary.
type Request struct {
	URL    *url.URL
	Header map[string][]string
	Body   []byte
}

func (r *Request) header(name string) string {
	if values := r.Header[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (r *Request) setHeader(name, value string) {
	if r.Header == nil {
		r.Header = make(map[string][]string)
	}
	r.Header[name] = []string{value}
}

func (r *Request) delHeader(name string) {
	delete(r.Header, name)
}

// Authorizer attaches credentials for the given scopes to req. Callers
// supply their own token-acquisition implementation; this package only
// decides which scope to ask for and when.
type Authorizer interface {
	Authorize(ctx context.Context, req *Request, scopes []string) error
}

type parkedBodyKey struct{}

// parkedBody holds the body OnRequest removed so OnChallenge can restore
// it once the real scope is known.
type parkedBody struct {
	data []byte
}

// ChallengeAuthorizer caches the scope a Key-Vault-style challenge
// response reveals, so only the first request per process needs the
// round trip. Reads of the cached scope take the read lock; OnChallenge
// takes the write lock each time it stores a parsed scope.
type ChallengeAuthorizer struct {
	mu                      sync.RWMutex
	scope                   string
	verifyChallengeResource bool
}

// NewChallengeAuthorizer builds a ChallengeAuthorizer. When
// verifyChallengeResource is true, OnChallenge rejects a challenge whose
// resource host is not a parent domain of the request host — disable this
// only with a clear understanding of the spoofing risk it otherwise
// prevents.
func NewChallengeAuthorizer(verifyChallengeResource bool) *ChallengeAuthorizer {
	return &ChallengeAuthorizer{verifyChallengeResource: verifyChallengeResource}
}

// OnRequest runs before every request is sent. If the scope is already
// known it authorizes normally; otherwise it strips the body (vaults that
// require this challenge scheme don't accept an unauthenticated body) and
// parks it on the returned context for OnChallenge to restore.
func (a *ChallengeAuthorizer) OnRequest(ctx context.Context, req *Request, authorizer Authorizer) (context.Context, error) {
	a.mu.RLock()
	scope := a.scope
	a.mu.RUnlock()

	if scope == "" {
		if len(req.Body) > 0 {
			ctx = context.WithValue(ctx, parkedBodyKey{}, &parkedBody{data: req.Body})
			req.Body = nil
			req.delHeader("Content-Length")
			req.delHeader("Content-Type")
		}
		return ctx, nil
	}

	return ctx, authorizer.Authorize(ctx, req, []string{scope})
}

// OnChallenge runs when a request comes back with a WWW-Authenticate
// challenge. It extracts the scope, optionally verifies the challenge
// resource matches the requested host, restores any body OnRequest
// parked, and authorizes the retry.
func (a *ChallengeAuthorizer) OnChallenge(ctx context.Context, req *Request, authorizer Authorizer, wwwAuthenticate string) error {
	scope, err := ParseScopeFromChallenge(wwwAuthenticate)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.scope = scope
	a.mu.Unlock()

	if a.verifyChallengeResource {
		if err := verifyChallengeResource(scope, req.URL, wwwAuthenticate); err != nil {
			return err
		}
	}

	if parked, ok := ctx.Value(parkedBodyKey{}).(*parkedBody); ok {
		req.Body = parked.data
		req.setHeader("Content-Length", strconv.Itoa(len(parked.data)))
		req.setHeader("Content-Type", "application/json")
	}

	return authorizer.Authorize(ctx, req, []string{scope})
}

func verifyChallengeResource(scope string, requestURL *url.URL, challenge string) error {
	challengeURL, err := url.Parse(scope)
	if err != nil || challengeURL.Host == "" {
		return core.NewError("vaultauth.OnChallenge", core.KindDataConversion, fmt.Sprintf("invalid audience in challenge: %s", challenge))
	}
	if requestURL == nil || requestURL.Host == "" {
		return core.NewError("vaultauth.OnChallenge", core.KindDataConversion, fmt.Sprintf("invalid request URL: %v", requestURL))
	}

	challengeHost := challengeURL.Hostname()
	requestHost := requestURL.Hostname()
	if !strings.HasSuffix(requestHost, "."+challengeHost) {
		return core.NewError("vaultauth.OnChallenge", core.KindOther, fmt.Sprintf(
			"challenge resource '%s' doesn't match the requested domain '%s'. Set VerifyChallengeResource to false in client options to disable this validation if necessary. See https://aka.ms/azsdk/blog/vault-uri for more information",
			scope, requestHost))
	}
	return nil
}

// ParseScopeFromChallenge extracts the authentication scope from a
// WWW-Authenticate challenge header, preferring a "scope" parameter and
// falling back to "resource" (appending "/.default", the v2-endpoint
// default scope suffix) when only that is present. When both are present
// in the header, the first one encountered wins.
//
// Example challenges:
//
//	Bearer authorization="https://login.microsoftonline.com/tenant", scope="https://vault.azure.net/.default"
//	Bearer authorization="https://login.microsoftonline.com/tenant", resource="https://vault.azure.net"
func ParseScopeFromChallenge(challenge string) (string, error) {
	for i := 0; i+1 < len(challenge); i++ {
		if challenge[i] != '=' || challenge[i+1] != '"' {
			continue
		}
		start := i - 8
		if start < 0 {
			start = 0
		}
		param := challenge[start:i]

		isScope := strings.HasSuffix(param, "scope")
		isResource := param == "resource"
		if !isScope && !isResource {
			continue
		}

		rest := challenge[i+2:]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			continue
		}
		value := rest[:end]
		if isScope {
			return value, nil
		}
		return value + "/.default", nil
	}

	return "", core.NewError("vaultauth.ParseScopeFromChallenge", core.KindDataConversion,
		fmt.Sprintf("no scope or resource in authentication challenge: %s", challenge))
}
