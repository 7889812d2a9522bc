// Package tags is the static WBXML tag catalog for Exchange ActiveSync.
//
// Each EAS namespace is a WBXML code page holding up to 59 tags with codes
// 0x05-0x3f. A Tag packs the page and code into one value so decoders and
// encoders can carry the active page explicitly instead of through global
// state.
//
// The catalog is built once at package initialization and is read-only
// afterwards, so it is safe to share across goroutines.
package tags
