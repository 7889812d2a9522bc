// Package wbxml implements the subset of WBXML 1.3 used by Exchange
// ActiveSync: tags with and without content, code page switches, inline
// strings and opaque data. Attributes, entities, string table references
// and extension tokens are rejected.
//
// The Decoder is a pull parser with one event of lookahead; protocol
// parsers drive it with NextTag, ValueString and ValueInt. The Encoder
// writes into an in-memory buffer suitable as an HTTP request body.
//
// Two failures are kept apart: ErrTruncated means the input stopped in the
// middle of a token or with elements open, ErrMalformed means the bytes
// present are invalid. Running out of input after the last element closes
// is a normal EOF event.
package wbxml
