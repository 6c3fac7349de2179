// Package matching implements the glob matching used to route requests.
//
// Two kinds of match are provided:
//
//   - Contains matching (MatchAny, MatchContains): a pattern matches a URL
//     when it matches any substring of it, so "/api/**" matches
//     "/v1/api/users". '*' stays within one path segment and '**' crosses
//     segments.
//   - Host matching (MatchHost): a vhost pattern such as "*.app.local" is
//     compared label by label against the request host, ignoring case and
//     port.
package matching
