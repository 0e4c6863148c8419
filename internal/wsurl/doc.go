// Package wsurl resolves connection targets to absolute WebSocket URLs.
//
// Relative targets are resolved against a base HTTP(S) origin:
//   - http://host  -> ws://host + path
//   - https://host -> wss://host + path
//
// Already-absolute ws:// and wss:// targets pass through unchanged.
package wsurl
