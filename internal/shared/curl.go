// Utilities for turning a browser "Copy as cURL" command into upstream credentials.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderFlag = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieFlag = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// browserHeaderKeys are the request headers kept in browser.json.
var browserHeaderKeys = []string{
	"user-agent",
	"accept",
	"accept-language",
	"content-type",
	"x-goog-authuser",
	"x-goog-visitor-id",
	"x-origin",
	"origin",
}

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A cookie passed with -b wins over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := strings.ReplaceAll(string(data), "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string

	for _, match := range curlHeaderFlag.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if m := curlCookieFlag.FindStringSubmatch(curlCmd); m != nil {
		cookie = firstGroup(m)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &CurlHeaders{Headers: headers, Cookie: cookie}, nil
}

// BrowserHeaders returns the lower-cased header set stored in browser.json.
//
// The cookie must carry a SAPISID variant, which signs every authenticated request.
func (c *CurlHeaders) BrowserHeaders() (map[string]string, error) {
	if !strings.Contains(c.Cookie, "SAPISID=") {
		return nil, fmt.Errorf("%w: cookie has no SAPISID, copy the request while signed in", ErrInvalidCredentials)
	}

	lower := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		lower[strings.ToLower(k)] = v
	}

	out := map[string]string{"cookie": c.Cookie}
	for _, key := range browserHeaderKeys {
		if v, ok := lower[key]; ok {
			out[key] = v
		}
	}
	if _, ok := out["x-origin"]; !ok {
		out["x-origin"] = "https://music.youtube.com"
	}
	return out, nil
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
