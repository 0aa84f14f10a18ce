// Package event decodes the JSON objects emitted by wrapped agent CLIs and
// normalizes their competing schemas (msg envelope, item wrapper, flat) into
// one canonical form. Payloads stay schema-free: an ordered string-keyed map
// with typed accessors, so unknown fields survive round trips and the
// fallback chains for equivalently-named fields live in one place.
package event
