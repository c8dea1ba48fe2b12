// Package server runs the loopback HTTP listener that catches the OAuth
// authorization redirect during `mixtape auth connect`.
//
// The listener serves exactly one flow: [CallbackHandler] validates the
// state parameter and captures the authorization code, and [CallbackServer]
// hosts it on the configured redirect address until a result arrives or the
// flow times out. The code exchange itself happens server-side; the client
// never touches Spotify credentials beyond the PKCE verifier.
package server
