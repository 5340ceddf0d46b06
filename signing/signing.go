// Package signing implements the shared-key HTTP request signing primitives
// described in spec.md §6: the canonical string-to-sign for the storage
// account family (blob/queue/file) and the shorter Table-service form, plus
// the HMAC-SHA256 signature and Authorization header they produce. It does
// not build SAS URLs; that composition is out of scope per spec §1.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// canonicalHeaderOrder is the fixed 11-header order the string-to-sign
// walks, before the x-ms-* headers and the canonicalized resource.
var canonicalHeaderOrder = []string{
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-MD5",
	"Content-Type",
	"Date",
	"If-Modified-Since",
	"If-Match",
	"If-None-Match",
	"If-Unmodified-Since",
	"Range",
}

// StringToSign builds the canonical string-to-sign for the 2018-03-28
// shared-key scheme: method, the 11 fixed headers (Content-Length omitted
// when its value is the literal string "0"), the canonicalized x-ms-*
// headers sorted by name, then the canonicalized resource.
func StringToSign(method, account, path string, headers http.Header, query url.Values) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('\n')

	for _, name := range canonicalHeaderOrder {
		value := headers.Get(name)
		if name == "Content-Length" && value == "0" {
			value = ""
		}
		b.WriteString(value)
		b.WriteByte('\n')
	}

	b.WriteString(canonicalizeMSHeaders(headers))
	b.WriteString(canonicalizeResource(account, path, query))

	return strings.TrimSuffix(b.String(), "\n")
}

// TableStringToSign builds the shorter Table-service string-to-sign: method,
// Content-MD5, Content-Type, x-ms-date, then the canonicalized resource.
func TableStringToSign(method, account, path string, headers http.Header) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n/%s%s",
		method,
		headers.Get("Content-MD5"),
		headers.Get("Content-Type"),
		headers.Get("x-ms-date"),
		account,
		path,
	)
}

// canonicalizeMSHeaders renders every x-ms-* header sorted by name as
// "name:value\n", one line per header.
func canonicalizeMSHeaders(headers http.Header) string {
	names := make([]string, 0)
	for name := range headers {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-ms-") {
			names = append(names, lower)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(headers.Get(name))
		b.WriteByte('\n')
	}
	return b.String()
}

// canonicalizeResource renders "/{account}{path}" followed by one line per
// query parameter: the name lowercased, sorted, with multi-value parameters
// joined by a comma after their values are lexicographically sorted. The
// trailing newline is left for the caller to trim.
func canonicalizeResource(account, path string, query url.Values) string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(account)
	b.WriteString(path)

	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })

	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(name))
		b.WriteByte(':')
		b.WriteString(strings.Join(values, ","))
	}
	b.WriteByte('\n')
	return b.String()
}

// Sign computes the base64-encoded HMAC-SHA256 signature of stringToSign
// using the base64-decoded account key.
func Sign(accountKey, stringToSign string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(accountKey)
	if err != nil {
		return "", fmt.Errorf("signing.Sign: decoding account key: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// AuthorizationHeader formats the SharedKey Authorization header value.
func AuthorizationHeader(account, signature string) string {
	return fmt.Sprintf("SharedKey %s:%s", account, signature)
}
