// Package google holds what the gmail and drive connectors share: the
// oauth2 bridge to driven.TokenProvider, service construction, googleapi
// error mapping and per-API request quotas.
//
// Both connectors ask for read-only scopes plus userinfo.email, which is
// used to label the account on the stored credentials.
package google
